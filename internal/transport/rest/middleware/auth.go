package middleware

import (
	"context"
	"net/http"
	"strings"

	"qrhunt/internal/model"
	"qrhunt/internal/service"
)

type contextKey string

const (
	TeamIDKey   contextKey = "teamId"
	TeamNameKey contextKey = "teamName"
	RoleKey     contextKey = "role"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireTeam validates the team JWT from the Authorization header
func (m *AuthMiddleware) RequireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireAdmin validates the team JWT and requires the admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		if claims.Role != model.RoleAdmin {
			http.Error(w, `{"message":"Forbidden: insufficient role"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*model.TeamClaims, bool) {
	token := extractBearerToken(r)
	if token == "" {
		http.Error(w, `{"message":"Unauthorized: missing token"}`, http.StatusUnauthorized)
		return nil, false
	}

	claims, err := m.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, `{"message":"Unauthorized: invalid token"}`, http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

func withClaims(ctx context.Context, claims *model.TeamClaims) context.Context {
	ctx = context.WithValue(ctx, TeamIDKey, claims.TeamID)
	ctx = context.WithValue(ctx, TeamNameKey, claims.TeamName)
	ctx = context.WithValue(ctx, RoleKey, claims.Role)
	return ctx
}

// GetTeamID extracts the authenticated team id from context
func GetTeamID(ctx context.Context) string {
	if v := ctx.Value(TeamIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetRole extracts the authenticated role from context
func GetRole(ctx context.Context) model.Role {
	if v := ctx.Value(RoleKey); v != nil {
		return v.(model.Role)
	}
	return model.RoleParticipant
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
