package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qrhunt/internal/cache"
	"qrhunt/internal/model"
	"qrhunt/internal/qrtoken"
	"qrhunt/internal/repository"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrIncorrectAnswer  = errors.New("incorrect answer")
	ErrNotParticipant   = errors.New("admin teams do not play")
	ErrNotYourQuestion  = errors.New("not your current question")
	ErrAwaitingGate     = errors.New("a scan is required before answering")
	ErrNoScanExpected   = errors.New("no qr scan expected for this team")
	ErrTeamPaused       = errors.New("team is paused")
	ErrAlreadyFinished  = errors.New("hunt already finished")
)

// TokenRejectedError reports why a placard token was rejected. The reason is
// one of the qrtoken rejection reasons and is safe to show to the client.
type TokenRejectedError struct {
	Reason string
}

func (e *TokenRejectedError) Error() string {
	return "qr token rejected: " + e.Reason
}

// GameService is the progression engine: it validates gameplay events
// against the team's persisted gate state and commits each transition with a
// conditional update, so a double-tapped submit cannot advance twice.
type GameService struct {
	teams       repository.TeamRepo
	questions   repository.QuestionRepo
	qcache      cache.QuestionCache
	lbcache     cache.LeaderboardCache
	codec       *qrtoken.Codec
	plan        model.CheckpointPlan
	broadcaster Broadcaster
}

func NewGameService(
	teams repository.TeamRepo,
	questions repository.QuestionRepo,
	qcache cache.QuestionCache,
	lbcache cache.LeaderboardCache,
	codec *qrtoken.Codec,
	plan model.CheckpointPlan,
) *GameService {
	return &GameService{
		teams:     teams,
		questions: questions,
		qcache:    qcache,
		lbcache:   lbcache,
		codec:     codec,
		plan:      plan,
	}
}

// SetBroadcaster sets the broadcaster for dashboard events.
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SubmitResult is returned for a correct answer.
type SubmitResult struct {
	Correct            bool   `json:"correct"`
	Finished           bool   `json:"finished"`
	RequiresQrScan     bool   `json:"requiresQrScan,omitempty"`
	RequiresCheckpoint bool   `json:"requiresCheckpoint,omitempty"`
	CheckpointNumber   int    `json:"checkpointNumber,omitempty"`
	QrForQuestion      int    `json:"qrForQuestion,omitempty"`
	NextHint           string `json:"nextHint,omitempty"`
	CurrentQuestion    int    `json:"currentQuestion"`
}

// SubmitAnswer checks the submission against the team's current question and
// applies the branch policy: final question finishes the hunt, a checkpoint
// trigger arms the matching gate, anything else arms the QR gate.
func (s *GameService) SubmitAnswer(ctx context.Context, teamID, submittedAnswer string) (*SubmitResult, error) {
	team, err := s.playableTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.AwaitingQrScanForQuestion != nil || team.AwaitingCheckpoint != nil {
		return nil, ErrAwaitingGate
	}

	question, err := s.question(ctx, team.CurrentQuestion)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	if !answerMatches(question.Answer, submittedAnswer) {
		return nil, ErrIncorrectAnswer
	}

	totalQuestions, err := s.questions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	now := time.Now()
	n := team.CurrentQuestion

	// Finish detection runs against the live question count, and before the
	// checkpoint plan: a shrunken hunt ends rather than stranding teams at a
	// gate past the final question.
	if n >= totalQuestions {
		updated, err := s.teams.UpdateProgress(ctx, team, repository.ProgressChange{
			LastCorrectAnswerAt: &now,
			FinishAt:            &now,
		})
		if err != nil {
			return nil, err
		}
		s.notifyProgress(ctx)
		s.broadcastEvent(EventTeamFinished, map[string]interface{}{
			"teamId":     updated.ID,
			"teamName":   updated.TeamName,
			"finishTime": updated.FinishTime,
		})
		return &SubmitResult{Correct: true, Finished: true, CurrentQuestion: updated.CurrentQuestion}, nil
	}

	if cp, ok := s.plan.ByTrigger(n); ok {
		if _, err := s.teams.UpdateProgress(ctx, team, repository.ProgressChange{
			LastCorrectAnswerAt: &now,
			AwaitCheckpoint:     &cp.Index,
		}); err != nil {
			return nil, err
		}
		s.notifyProgress(ctx)
		return &SubmitResult{
			Correct:            true,
			RequiresCheckpoint: true,
			CheckpointNumber:   cp.Index,
			CurrentQuestion:    n,
		}, nil
	}

	if _, err := s.teams.UpdateProgress(ctx, team, repository.ProgressChange{
		LastCorrectAnswerAt: &now,
		AwaitQrScan:         &n,
	}); err != nil {
		return nil, err
	}
	s.notifyProgress(ctx)

	result := &SubmitResult{
		Correct:         true,
		RequiresQrScan:  true,
		QrForQuestion:   n,
		CurrentQuestion: n,
	}
	if next, err := s.question(ctx, n+1); err == nil && next != nil {
		result.NextHint = next.Hint
	}
	return result, nil
}

// RedeemResult is returned for a successful token redemption.
type RedeemResult struct {
	Advanced        bool `json:"advanced"`
	Finished        bool `json:"finished"`
	CurrentQuestion int  `json:"currentQuestion"`
}

// RedeemToken clears the QR gate and advances the team to the next question.
// The token must verify, name the team's current question, and the team must
// actually be awaiting a scan for it.
func (s *GameService) RedeemToken(ctx context.Context, teamID, token string) (*RedeemResult, error) {
	team, err := s.playableTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	v := s.codec.Verify(token, time.Now())
	if !v.Valid {
		return nil, &TokenRejectedError{Reason: v.Reason}
	}

	n := v.QuestionNumber
	if team.CurrentQuestion != n {
		return nil, ErrNotYourQuestion
	}
	if team.AwaitingQrScanForQuestion == nil || *team.AwaitingQrScanForQuestion != n {
		return nil, ErrNoScanExpected
	}

	next := n + 1
	updated, err := s.teams.UpdateProgress(ctx, team, repository.ProgressChange{
		CurrentQuestion:  &next,
		ClearAwaitQrScan: true,
	})
	if err != nil {
		return nil, err
	}
	s.notifyProgress(ctx)

	return &RedeemResult{Advanced: true, CurrentQuestion: updated.CurrentQuestion}, nil
}

// GetQuestion returns the participant view of question n, which must be the
// team's current question.
func (s *GameService) GetQuestion(ctx context.Context, teamID string, questionNumber int) (*model.QuestionView, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if team.CurrentQuestion != questionNumber {
		return nil, ErrNotYourQuestion
	}

	question, err := s.question(ctx, questionNumber)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	return question.View(), nil
}

// ProgressResult is the team's own view of its progression state.
type ProgressResult struct {
	CurrentQuestion    int        `json:"currentQuestion"`
	FinishTime         *time.Time `json:"finishTime"`
	IsPaused           bool       `json:"isPaused"`
	AwaitingCheckpoint *int       `json:"awaitingCheckpoint"`
	AwaitingQrScan     *int       `json:"awaitingQrScanForQuestion"`
	HasStarted         bool       `json:"hasStarted"`
}

// Progress returns the team's progression state.
func (s *GameService) Progress(ctx context.Context, teamID string) (*ProgressResult, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	return &ProgressResult{
		CurrentQuestion:    team.CurrentQuestion,
		FinishTime:         team.FinishTime,
		IsPaused:           team.IsPaused,
		AwaitingCheckpoint: team.AwaitingCheckpoint,
		AwaitingQrScan:     team.AwaitingQrScanForQuestion,
		HasStarted:         team.CurrentQuestion > 1 || team.LastCorrectAnswerTimestamp != nil,
	}, nil
}

// TeamInfo returns the non-sensitive identity of the team.
func (s *GameService) TeamInfo(ctx context.Context, teamID string) (*model.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

// playableTeam loads the team and rejects events the team's state cannot
// accept. Finished is terminal for gameplay; paused teams wait for an admin.
func (s *GameService) playableTeam(ctx context.Context, teamID string) (*model.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	if team.Role == model.RoleAdmin {
		return nil, ErrNotParticipant
	}
	if team.Finished() {
		return nil, ErrAlreadyFinished
	}
	if team.IsPaused {
		return nil, ErrTeamPaused
	}
	return team, nil
}

// question reads through the cache; cache failures fall back to Mongo.
func (s *GameService) question(ctx context.Context, questionNumber int) (*model.Question, error) {
	if cached, err := s.qcache.Get(ctx, questionNumber); err == nil && cached != nil {
		return cached, nil
	}

	question, err := s.questions.GetByNumber(ctx, questionNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load question %d: %w", questionNumber, err)
	}
	if question != nil {
		_ = s.qcache.Set(ctx, question)
	}
	return question, nil
}

func (s *GameService) notifyProgress(ctx context.Context) {
	_ = s.lbcache.Invalidate(ctx)
	s.broadcastEvent(EventLeaderboardUpdate, nil)
}

func (s *GameService) broadcastEvent(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToDashboards(event, payload)
	}
}

// answerMatches compares the submission against each pipe-delimited
// alternative of the stored answer, trimmed and case-folded. An empty
// submission never matches.
func answerMatches(storedAnswer, submittedAnswer string) bool {
	submitted := strings.ToLower(strings.TrimSpace(submittedAnswer))
	if submitted == "" {
		return false
	}
	for _, alt := range strings.Split(storedAnswer, "|") {
		if strings.ToLower(strings.TrimSpace(alt)) == submitted {
			return true
		}
	}
	return false
}
