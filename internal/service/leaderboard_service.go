package service

import (
	"context"
	"fmt"
	"sort"

	"qrhunt/internal/cache"
	"qrhunt/internal/model"
	"qrhunt/internal/repository"
)

// Rank produces the leaderboard order: finished teams first by finish time,
// then unfinished teams by question reached, with the earlier last correct
// answer breaking ties (no recorded answer sorts last). Admin teams are
// excluded. The sort is stable, so equal keys keep their input order and
// re-ranking the same input always reproduces the same order.
func Rank(teams []*model.Team) []*model.Team {
	ranked := make([]*model.Team, 0, len(teams))
	for _, t := range teams {
		if t.Role != model.RoleAdmin {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankLess(ranked[i], ranked[j])
	})
	return ranked
}

func rankLess(a, b *model.Team) bool {
	aFinished, bFinished := a.Finished(), b.Finished()
	if aFinished != bFinished {
		return aFinished
	}
	if aFinished {
		if !a.FinishTime.Equal(*b.FinishTime) {
			return a.FinishTime.Before(*b.FinishTime)
		}
		return false
	}
	if a.CurrentQuestion != b.CurrentQuestion {
		return a.CurrentQuestion > b.CurrentQuestion
	}
	at, bt := a.LastCorrectAnswerTimestamp, b.LastCorrectAnswerTimestamp
	switch {
	case at == nil:
		return false
	case bt == nil:
		return true
	default:
		return at.Before(*bt)
	}
}

// LeaderboardService serves the ranked leaderboard through a short-lived
// snapshot cache.
type LeaderboardService struct {
	teams   repository.TeamRepo
	lbcache cache.LeaderboardCache
}

func NewLeaderboardService(teams repository.TeamRepo, lbcache cache.LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{teams: teams, lbcache: lbcache}
}

// Get returns the current leaderboard, re-ranking from the team documents on
// a cache miss.
func (s *LeaderboardService) Get(ctx context.Context) ([]cache.LeaderboardEntry, error) {
	if cached, err := s.lbcache.GetSnapshot(ctx); err == nil && cached != nil {
		return cached, nil
	}

	teams, err := s.teams.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	ranked := Rank(teams)
	entries := make([]cache.LeaderboardEntry, len(ranked))
	for i, t := range ranked {
		entries[i] = cache.LeaderboardEntry{
			Rank:                       i + 1,
			TeamID:                     t.ID,
			TeamName:                   t.TeamName,
			CurrentQuestion:            t.CurrentQuestion,
			LastCorrectAnswerTimestamp: t.LastCorrectAnswerTimestamp,
			FinishTime:                 t.FinishTime,
		}
	}

	_ = s.lbcache.SetSnapshot(ctx, entries)
	return entries, nil
}
