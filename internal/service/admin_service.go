package service

import (
	"context"
	"fmt"
	"time"

	"qrhunt/internal/cache"
	"qrhunt/internal/model"
	"qrhunt/internal/qrtoken"
	"qrhunt/internal/repository"
)

// AdminService covers organizer operations: question management, team
// oversight and placard token issuance.
type AdminService struct {
	teams     repository.TeamRepo
	questions repository.QuestionRepo
	qcache    cache.QuestionCache
	codec     *qrtoken.Codec
}

func NewAdminService(teams repository.TeamRepo, questions repository.QuestionRepo, qcache cache.QuestionCache, codec *qrtoken.Codec) *AdminService {
	return &AdminService{
		teams:     teams,
		questions: questions,
		qcache:    qcache,
		codec:     codec,
	}
}

// UpsertQuestion creates or replaces the question with the given number and
// invalidates its cache entry.
func (s *AdminService) UpsertQuestion(ctx context.Context, question *model.Question) (*model.Question, error) {
	saved, err := s.questions.Upsert(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert question: %w", err)
	}
	_ = s.qcache.Invalidate(ctx, saved.QuestionNumber)
	return saved, nil
}

// DeleteQuestion removes the question with the given number. Returns false
// when no such question exists.
func (s *AdminService) DeleteQuestion(ctx context.Context, questionNumber int) (bool, error) {
	deleted, err := s.questions.DeleteByNumber(ctx, questionNumber)
	if err != nil {
		return false, fmt.Errorf("failed to delete question: %w", err)
	}
	if deleted {
		_ = s.qcache.Invalidate(ctx, questionNumber)
	}
	return deleted, nil
}

// ListQuestions returns all questions in hunt order, answers included.
func (s *AdminService) ListQuestions(ctx context.Context) ([]*model.Question, error) {
	questions, err := s.questions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// TeamSummary is the organizer view of one team.
type TeamSummary struct {
	ID                 string             `json:"id"`
	TeamName           string             `json:"teamName"`
	Role               model.Role         `json:"role"`
	CurrentQuestion    int                `json:"currentQuestion"`
	AwaitingCheckpoint *int               `json:"awaitingCheckpoint"`
	IsPaused           bool               `json:"isPaused"`
	FinishTime         *time.Time         `json:"finishTime"`
	Members            []model.TeamMember `json:"members"`
}

// ListTeams returns every team in leaderboard order, participants ranked
// first and admin teams appended at the end.
func (s *AdminService) ListTeams(ctx context.Context) ([]TeamSummary, error) {
	teams, err := s.teams.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	ordered := Rank(teams)
	for _, t := range teams {
		if t.Role == model.RoleAdmin {
			ordered = append(ordered, t)
		}
	}

	summaries := make([]TeamSummary, len(ordered))
	for i, t := range ordered {
		members := t.Members
		if members == nil {
			members = []model.TeamMember{}
		}
		summaries[i] = TeamSummary{
			ID:                 t.ID,
			TeamName:           t.TeamName,
			Role:               t.Role,
			CurrentQuestion:    t.CurrentQuestion,
			AwaitingCheckpoint: t.AwaitingCheckpoint,
			IsPaused:           t.IsPaused,
			FinishTime:         t.FinishTime,
			Members:            members,
		}
	}
	return summaries, nil
}

// QRTokenInfo is the currently valid placard token for a question. Clients
// re-poll at an interval shorter than the TTL.
type QRTokenInfo struct {
	Token          string `json:"token"`
	TTLSeconds     int    `json:"ttlSeconds"`
	QuestionNumber int    `json:"questionNumber"`
}

// CurrentQRToken regenerates the token a placard for this question should be
// displaying right now.
func (s *AdminService) CurrentQRToken(questionNumber int) *QRTokenInfo {
	return &QRTokenInfo{
		Token:          s.codec.Generate(questionNumber, time.Now(), qrtoken.DefaultTTLSeconds),
		TTLSeconds:     qrtoken.DefaultTTLSeconds,
		QuestionNumber: questionNumber,
	}
}
