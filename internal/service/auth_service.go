package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"qrhunt/internal/model"
	"qrhunt/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid team name or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTeamNameTaken      = errors.New("team name already taken")
	ErrInvalidInviteKey   = errors.New("invalid admin invite key")
)

const (
	tokenLifetime = 12 * time.Hour
	maxMembers    = 4
	bcryptCost    = 10
)

// AuthService handles team registration, login and session tokens.
type AuthService struct {
	teams          repository.TeamRepo
	jwtSecret      []byte
	adminInviteKey string
}

func NewAuthService(teams repository.TeamRepo, jwtSecret, adminInviteKey string) *AuthService {
	return &AuthService{
		teams:          teams,
		jwtSecret:      []byte(jwtSecret),
		adminInviteKey: adminInviteKey,
	}
}

// Register creates a team starting at question 1. Admin role requires the
// invite key; without a configured key no admin can be registered.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	existing, err := s.teams.GetByName(ctx, req.TeamName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up team: %w", err)
	}
	if existing != nil {
		return nil, ErrTeamNameTaken
	}

	role := model.RoleParticipant
	if model.ParseRole(req.Role) == model.RoleAdmin {
		if s.adminInviteKey == "" || req.AdminInviteKey != s.adminInviteKey {
			return nil, ErrInvalidInviteKey
		}
		role = model.RoleAdmin
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	members := req.Members
	if len(members) > maxMembers {
		members = members[:maxMembers]
	}

	team := &model.Team{
		ID:              "t_" + uuid.New().String()[:8],
		TeamName:        req.TeamName,
		Password:        string(hashed),
		Role:            role,
		Members:         members,
		CurrentQuestion: 1,
		CreatedAt:       time.Now(),
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	token, err := s.generateToken(team)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		Token: token,
		Team:  &model.TeamInfo{ID: team.ID, TeamName: team.TeamName, Role: team.Role},
	}, nil
}

// Login validates credentials and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, teamName, password string) (*model.AuthResponse, error) {
	team, err := s.teams.GetByName(ctx, teamName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up team: %w", err)
	}
	if team == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(team.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(team)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		Token: token,
		Team:  &model.TeamInfo{ID: team.ID, TeamName: team.TeamName, Role: team.Role},
	}, nil
}

// ValidateToken parses and validates a session token.
func (s *AuthService) ValidateToken(tokenString string) (*model.TeamClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.TeamClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.TeamClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) generateToken(team *model.Team) (string, error) {
	claims := &model.TeamClaims{
		TeamID:   team.ID,
		TeamName: team.TeamName,
		Role:     team.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
