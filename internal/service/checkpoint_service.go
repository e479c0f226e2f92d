package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrhunt/internal/cache"
	"qrhunt/internal/model"
	"qrhunt/internal/repository"
)

var ErrInvalidCheckpoint = errors.New("invalid checkpoint number")

// CheckpointMismatchError reports a scan of the wrong checkpoint placard.
// Expected is nil when the team is not awaiting any checkpoint.
type CheckpointMismatchError struct {
	Expected *int
	Got      int
}

func (e *CheckpointMismatchError) Error() string {
	if e.Expected == nil {
		return fmt.Sprintf("not awaiting a checkpoint, scanned %d", e.Got)
	}
	return fmt.Sprintf("awaiting checkpoint %d, scanned %d", *e.Expected, e.Got)
}

// CheckpointService handles the physical checkpoint gates and the admin
// pause controls around them.
type CheckpointService struct {
	teams       repository.TeamRepo
	plan        model.CheckpointPlan
	lbcache     cache.LeaderboardCache
	broadcaster Broadcaster
}

func NewCheckpointService(teams repository.TeamRepo, plan model.CheckpointPlan, lbcache cache.LeaderboardCache) *CheckpointService {
	return &CheckpointService{
		teams:   teams,
		plan:    plan,
		lbcache: lbcache,
	}
}

// SetBroadcaster sets the broadcaster for dashboard events.
func (s *CheckpointService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ScanResult is returned for a successful checkpoint scan.
type ScanResult struct {
	Success      bool `json:"success"`
	Paused       bool `json:"paused"`
	NextQuestion int  `json:"nextQuestion"`
}

// Scan clears checkpoint gate k for the team: stamps the write-once
// checkpoint time, presets the post-gate question, and auto-pauses the team
// until an organizer releases it.
func (s *CheckpointService) Scan(ctx context.Context, teamID string, checkpointNumber int) (*ScanResult, error) {
	cp, ok := s.plan.ByIndex(checkpointNumber)
	if !ok {
		return nil, ErrInvalidCheckpoint
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if team.Finished() {
		return nil, ErrAlreadyFinished
	}
	if team.AwaitingCheckpoint == nil || *team.AwaitingCheckpoint != checkpointNumber {
		return nil, &CheckpointMismatchError{Expected: team.AwaitingCheckpoint, Got: checkpointNumber}
	}

	now := time.Now()
	paused := true
	if _, err := s.teams.UpdateProgress(ctx, team, repository.ProgressChange{
		CurrentQuestion:      &cp.Resume,
		ClearAwaitCheckpoint: true,
		SetPaused:            &paused,
		CheckpointTime:       &repository.CheckpointStamp{Index: cp.Index, At: now},
	}); err != nil {
		return nil, err
	}

	_ = s.lbcache.Invalidate(ctx)
	s.broadcastEvent(EventTeamPaused, map[string]interface{}{
		"teamId":     team.ID,
		"teamName":   team.TeamName,
		"checkpoint": cp.Index,
	})

	return &ScanResult{Success: true, Paused: true, NextQuestion: cp.Resume}, nil
}

// Pause pauses one team (admin operation).
func (s *CheckpointService) Pause(ctx context.Context, teamID string) (*model.Team, error) {
	team, err := s.teams.SetPaused(ctx, teamID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to pause team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	s.broadcastEvent(EventTeamPaused, map[string]interface{}{"teamId": team.ID, "teamName": team.TeamName})
	return team, nil
}

// Unpause releases one team back to its current question (admin operation).
func (s *CheckpointService) Unpause(ctx context.Context, teamID string) (*model.Team, error) {
	team, err := s.teams.SetPaused(ctx, teamID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to unpause team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	s.broadcastEvent(EventTeamUnpaused, map[string]interface{}{"teamId": team.ID, "teamName": team.TeamName})
	return team, nil
}

// UnpauseResult is the per-team outcome of a batch unpause.
type UnpauseResult struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// UnpauseAll releases every paused team. Failures are reported per team and
// do not stop the batch.
func (s *CheckpointService) UnpauseAll(ctx context.Context) ([]UnpauseResult, error) {
	paused, err := s.teams.ListPaused(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list paused teams: %w", err)
	}

	results := make([]UnpauseResult, 0, len(paused))
	for _, team := range paused {
		res := UnpauseResult{TeamID: team.ID, TeamName: team.TeamName, Success: true}
		if _, err := s.teams.SetPaused(ctx, team.ID, false); err != nil {
			res.Success = false
			res.Error = err.Error()
		} else {
			s.broadcastEvent(EventTeamUnpaused, map[string]interface{}{"teamId": team.ID, "teamName": team.TeamName})
		}
		results = append(results, res)
	}
	return results, nil
}

// Reset returns a team to question 1, clearing every gate, pause, checkpoint
// and finish field. Works from any state, including finished.
func (s *CheckpointService) Reset(ctx context.Context, teamID string) (*model.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	first := 1
	unpaused := false
	updated, err := s.teams.UpdateProgress(ctx, team, repository.ProgressChange{
		CurrentQuestion:      &first,
		ClearAwaitQrScan:     true,
		ClearAwaitCheckpoint: true,
		SetPaused:            &unpaused,
		ClearFinish:          true,
		ClearCheckpointTimes: true,
		ClearLastCorrect:     true,
	})
	if err != nil {
		return nil, err
	}

	_ = s.lbcache.Invalidate(ctx)
	s.broadcastEvent(EventLeaderboardUpdate, nil)
	return updated, nil
}

func (s *CheckpointService) broadcastEvent(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToDashboards(event, payload)
	}
}
