package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"qrhunt/internal/model"
	"qrhunt/internal/service"
)

// AuthHandler handles registration and login endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.TeamName = strings.TrimSpace(req.TeamName)
	if req.TeamName == "" {
		writeError(w, http.StatusBadRequest, "teamName is required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if req.Role != "" && req.Role != string(model.RoleParticipant) && req.Role != string(model.RoleAdmin) {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	resp, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TeamName == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "teamName and password are required")
		return
	}

	resp, err := h.authSvc.Login(r.Context(), req.TeamName, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
