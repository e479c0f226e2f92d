package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"qrhunt/internal/model"
	"qrhunt/internal/service"
)

// AdminHandler handles organizer endpoints
type AdminHandler struct {
	adminSvc      *service.AdminService
	checkpointSvc *service.CheckpointService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminSvc *service.AdminService, checkpointSvc *service.CheckpointService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, checkpointSvc: checkpointSvc}
}

// ListQuestions handles GET /api/admin/questions
func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.adminSvc.ListQuestions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// UpsertQuestion handles POST /api/admin/questions
func (h *AdminHandler) UpsertQuestion(w http.ResponseWriter, r *http.Request) {
	var question model.Question
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if question.QuestionNumber < 1 {
		writeError(w, http.StatusBadRequest, "questionNumber must be a positive integer")
		return
	}
	if strings.TrimSpace(question.Text) == "" || strings.TrimSpace(question.Answer) == "" {
		writeError(w, http.StatusBadRequest, "text and answer are required")
		return
	}

	saved, err := h.adminSvc.UpsertQuestion(r.Context(), &question)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteQuestion handles DELETE /api/admin/questions/{questionNumber}
func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionNumber, err := strconv.Atoi(mux.Vars(r)["questionNumber"])
	if err != nil || questionNumber < 1 {
		writeError(w, http.StatusBadRequest, "invalid question number")
		return
	}

	deleted, err := h.adminSvc.DeleteQuestion(r.Context(), questionNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListTeams handles GET /api/admin/teams
func (h *AdminHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.adminSvc.ListTeams(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// ResetTeam handles POST /api/admin/teams/{teamId}/reset
func (h *AdminHandler) ResetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamId"]

	team, err := h.checkpointSvc.Reset(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":              team.ID,
		"currentQuestion": team.CurrentQuestion,
		"finishTime":      team.FinishTime,
	})
}

// CurrentQRToken handles GET /api/admin/qr/current/{questionNumber}
func (h *AdminHandler) CurrentQRToken(w http.ResponseWriter, r *http.Request) {
	questionNumber, err := strconv.Atoi(mux.Vars(r)["questionNumber"])
	if err != nil || questionNumber < 1 {
		writeError(w, http.StatusBadRequest, "invalid question number")
		return
	}

	writeJSON(w, http.StatusOK, h.adminSvc.CurrentQRToken(questionNumber))
}
