package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "leaderboard:snapshot"
	leaderboardTTL = 3 * time.Second
)

// LeaderboardEntry is one ranked row of the public leaderboard.
type LeaderboardEntry struct {
	Rank                       int        `json:"rank"`
	TeamID                     string     `json:"id"`
	TeamName                   string     `json:"teamName"`
	CurrentQuestion            int        `json:"currentQuestion"`
	LastCorrectAnswerTimestamp *time.Time `json:"lastCorrectAnswerTimestamp"`
	FinishTime                 *time.Time `json:"finishTime"`
}

// LeaderboardCache holds a short-lived snapshot of the ranked leaderboard so
// a crowd of polling clients does not re-rank on every request. A miss
// returns (nil, nil).
type LeaderboardCache interface {
	GetSnapshot(ctx context.Context) ([]LeaderboardEntry, error)
	SetSnapshot(ctx context.Context, entries []LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

type leaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{client: client}
}

func (c *leaderboardCache) GetSnapshot(ctx context.Context) ([]LeaderboardEntry, error) {
	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *leaderboardCache) SetSnapshot(ctx context.Context, entries []LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, leaderboardKey, data, leaderboardTTL).Err()
}

func (c *leaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, leaderboardKey).Err()
}
