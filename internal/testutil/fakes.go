// Package testutil provides in-memory fakes for the repository and cache
// interfaces, with the same conditional-update semantics as the Mongo
// implementations.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"qrhunt/internal/cache"
	"qrhunt/internal/model"
	"qrhunt/internal/repository"
)

// MemTeamRepo is an in-memory repository.TeamRepo.
type MemTeamRepo struct {
	mu    sync.Mutex
	teams map[string]*model.Team

	// UpdateHook, if set, runs after an UpdateProgress caller has read its
	// prev state but before the conditional update applies. Tests use it to
	// interleave a concurrent writer.
	UpdateHook func()

	// PauseErr, if set for a team id, makes SetPaused fail for that team.
	PauseErr map[string]error
}

func NewMemTeamRepo() *MemTeamRepo {
	return &MemTeamRepo{teams: make(map[string]*model.Team)}
}

func (r *MemTeamRepo) Create(ctx context.Context, team *model.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneTeam(team)
	clone.TeamName = strings.ToLower(clone.TeamName)
	r.teams[clone.ID] = clone
	return nil
}

func (r *MemTeamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, nil
	}
	return cloneTeam(team), nil
}

func (r *MemTeamRepo) GetByName(ctx context.Context, teamName string) (*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.teams {
		if team.TeamName == strings.ToLower(teamName) {
			return cloneTeam(team), nil
		}
	}
	return nil, nil
}

func (r *MemTeamRepo) GetAll(ctx context.Context) ([]*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.teams))
	for id := range r.teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	teams := make([]*model.Team, 0, len(ids))
	for _, id := range ids {
		teams = append(teams, cloneTeam(r.teams[id]))
	}
	return teams, nil
}

func (r *MemTeamRepo) ListPaused(ctx context.Context) ([]*model.Team, error) {
	all, _ := r.GetAll(ctx)
	var paused []*model.Team
	for _, team := range all {
		if team.IsPaused {
			paused = append(paused, team)
		}
	}
	return paused, nil
}

func (r *MemTeamRepo) UpdateProgress(ctx context.Context, prev *model.Team, change repository.ProgressChange) (*model.Team, error) {
	if r.UpdateHook != nil {
		hook := r.UpdateHook
		r.UpdateHook = nil
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.teams[prev.ID]
	if !ok || !gateMatches(cur, prev) {
		return nil, repository.ErrConflict
	}

	next := cloneTeam(cur)
	if change.CurrentQuestion != nil {
		next.CurrentQuestion = *change.CurrentQuestion
	}
	if change.AwaitQrScan != nil {
		v := *change.AwaitQrScan
		next.AwaitingQrScanForQuestion = &v
	} else if change.ClearAwaitQrScan {
		next.AwaitingQrScanForQuestion = nil
	}
	if change.AwaitCheckpoint != nil {
		v := *change.AwaitCheckpoint
		next.AwaitingCheckpoint = &v
	} else if change.ClearAwaitCheckpoint {
		next.AwaitingCheckpoint = nil
	}
	if change.SetPaused != nil {
		next.IsPaused = *change.SetPaused
	}
	if change.CheckpointTime != nil {
		at := change.CheckpointTime.At
		switch change.CheckpointTime.Index {
		case 1:
			next.Checkpoint1Time = &at
		case 2:
			next.Checkpoint2Time = &at
		case 3:
			next.Checkpoint3Time = &at
		}
	}
	if change.LastCorrectAnswerAt != nil {
		v := *change.LastCorrectAnswerAt
		next.LastCorrectAnswerTimestamp = &v
	} else if change.ClearLastCorrect {
		next.LastCorrectAnswerTimestamp = nil
	}
	if change.FinishAt != nil {
		v := *change.FinishAt
		next.FinishTime = &v
	} else if change.ClearFinish {
		next.FinishTime = nil
	}
	if change.ClearCheckpointTimes {
		next.Checkpoint1Time = nil
		next.Checkpoint2Time = nil
		next.Checkpoint3Time = nil
	}

	r.teams[prev.ID] = next
	return cloneTeam(next), nil
}

func (r *MemTeamRepo) SetPaused(ctx context.Context, id string, paused bool) (*model.Team, error) {
	if err, ok := r.PauseErr[id]; ok {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, nil
	}
	next := cloneTeam(team)
	next.IsPaused = paused
	r.teams[id] = next
	return cloneTeam(next), nil
}

func gateMatches(cur, prev *model.Team) bool {
	return cur.CurrentQuestion == prev.CurrentQuestion &&
		intPtrEq(cur.AwaitingQrScanForQuestion, prev.AwaitingQrScanForQuestion) &&
		intPtrEq(cur.AwaitingCheckpoint, prev.AwaitingCheckpoint) &&
		cur.IsPaused == prev.IsPaused &&
		timePtrEq(cur.FinishTime, prev.FinishTime)
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func timePtrEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func cloneTeam(t *model.Team) *model.Team {
	clone := *t
	clone.AwaitingQrScanForQuestion = cloneIntPtr(t.AwaitingQrScanForQuestion)
	clone.AwaitingCheckpoint = cloneIntPtr(t.AwaitingCheckpoint)
	clone.Checkpoint1Time = cloneTimePtr(t.Checkpoint1Time)
	clone.Checkpoint2Time = cloneTimePtr(t.Checkpoint2Time)
	clone.Checkpoint3Time = cloneTimePtr(t.Checkpoint3Time)
	clone.LastCorrectAnswerTimestamp = cloneTimePtr(t.LastCorrectAnswerTimestamp)
	clone.FinishTime = cloneTimePtr(t.FinishTime)
	clone.Members = append([]model.TeamMember(nil), t.Members...)
	return &clone
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// MemQuestionRepo is an in-memory repository.QuestionRepo.
type MemQuestionRepo struct {
	mu        sync.Mutex
	questions map[int]*model.Question
}

func NewMemQuestionRepo() *MemQuestionRepo {
	return &MemQuestionRepo{questions: make(map[int]*model.Question)}
}

func (r *MemQuestionRepo) Upsert(ctx context.Context, question *model.Question) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *question
	r.questions[question.QuestionNumber] = &clone
	saved := clone
	return &saved, nil
}

func (r *MemQuestionRepo) GetByNumber(ctx context.Context, questionNumber int) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[questionNumber]
	if !ok {
		return nil, nil
	}
	clone := *q
	return &clone, nil
}

func (r *MemQuestionRepo) DeleteByNumber(ctx context.Context, questionNumber int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[questionNumber]; !ok {
		return false, nil
	}
	delete(r.questions, questionNumber)
	return true, nil
}

func (r *MemQuestionRepo) List(ctx context.Context) ([]*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	numbers := make([]int, 0, len(r.questions))
	for n := range r.questions {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	list := make([]*model.Question, 0, len(numbers))
	for _, n := range numbers {
		clone := *r.questions[n]
		list = append(list, &clone)
	}
	return list, nil
}

func (r *MemQuestionRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.questions), nil
}

// MemQuestionCache is an in-memory cache.QuestionCache.
type MemQuestionCache struct {
	mu        sync.Mutex
	questions map[int]*model.Question
}

func NewMemQuestionCache() *MemQuestionCache {
	return &MemQuestionCache{questions: make(map[int]*model.Question)}
}

func (c *MemQuestionCache) Get(ctx context.Context, questionNumber int) (*model.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.questions[questionNumber]
	if !ok {
		return nil, nil
	}
	clone := *q
	return &clone, nil
}

func (c *MemQuestionCache) Set(ctx context.Context, question *model.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *question
	c.questions[question.QuestionNumber] = &clone
	return nil
}

func (c *MemQuestionCache) Invalidate(ctx context.Context, questionNumber int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.questions, questionNumber)
	return nil
}

// MemLeaderboardCache is an in-memory cache.LeaderboardCache.
type MemLeaderboardCache struct {
	mu      sync.Mutex
	entries []cache.LeaderboardEntry
}

func NewMemLeaderboardCache() *MemLeaderboardCache {
	return &MemLeaderboardCache{}
}

func (c *MemLeaderboardCache) GetSnapshot(ctx context.Context) ([]cache.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		return nil, nil
	}
	return append([]cache.LeaderboardEntry(nil), c.entries...), nil
}

func (c *MemLeaderboardCache) SetSnapshot(ctx context.Context, entries []cache.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append([]cache.LeaderboardEntry(nil), entries...)
	return nil
}

func (c *MemLeaderboardCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	return nil
}
