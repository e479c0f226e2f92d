package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"qrhunt/internal/service"
	"qrhunt/internal/transport/rest/middleware"
)

// GameHandler handles gameplay endpoints
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// SubmitAnswerRequest is the request body for answer submission
type SubmitAnswerRequest struct {
	SubmittedAnswer string `json:"submittedAnswer"`
}

// SubmitAnswer handles POST /api/game/submit-answer
func (h *GameHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.GetTeamID(r.Context())

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SubmittedAnswer) == "" {
		writeError(w, http.StatusBadRequest, "submittedAnswer is required")
		return
	}

	result, err := h.gameSvc.SubmitAnswer(r.Context(), teamID, req.SubmittedAnswer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetQuestion handles POST /api/game/question/{questionNumber}
func (h *GameHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.GetTeamID(r.Context())

	questionNumber, err := strconv.Atoi(mux.Vars(r)["questionNumber"])
	if err != nil || questionNumber < 1 {
		writeError(w, http.StatusBadRequest, "invalid question number")
		return
	}

	question, err := h.gameSvc.GetQuestion(r.Context(), teamID, questionNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// Progress handles GET /api/game/progress
func (h *GameHandler) Progress(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.GetTeamID(r.Context())

	progress, err := h.gameSvc.Progress(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// TeamInfo handles GET /api/game/team
func (h *GameHandler) TeamInfo(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.GetTeamID(r.Context())

	team, err := h.gameSvc.TeamInfo(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"teamName": team.TeamName,
		"members":  team.Members,
	})
}
