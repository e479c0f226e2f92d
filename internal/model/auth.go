package model

import "github.com/golang-jwt/jwt/v5"

// TeamClaims are the JWT claims carried by a team session token.
type TeamClaims struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// RegisterRequest is the request body for team registration.
type RegisterRequest struct {
	TeamName       string       `json:"teamName"`
	Password       string       `json:"password"`
	Role           string       `json:"role,omitempty"`
	AdminInviteKey string       `json:"adminInviteKey,omitempty"`
	Members        []TeamMember `json:"members,omitempty"`
}

// LoginRequest is the request body for team login.
type LoginRequest struct {
	TeamName string `json:"teamName"`
	Password string `json:"password"`
}

// AuthResponse is returned after successful registration or login.
type AuthResponse struct {
	Token string    `json:"token"`
	Team  *TeamInfo `json:"team"`
}

// TeamInfo is the non-sensitive identity of a team.
type TeamInfo struct {
	ID       string `json:"id"`
	TeamName string `json:"teamName"`
	Role     Role   `json:"role"`
}
