package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"qrhunt/internal/service"
	"qrhunt/internal/transport/rest/middleware"
)

// CheckpointHandler handles checkpoint scans and the admin pause controls
type CheckpointHandler struct {
	checkpointSvc *service.CheckpointService
}

// NewCheckpointHandler creates a new checkpoint handler
func NewCheckpointHandler(checkpointSvc *service.CheckpointService) *CheckpointHandler {
	return &CheckpointHandler{checkpointSvc: checkpointSvc}
}

// Scan handles POST /api/checkpoint/scan/{checkpointNumber}
func (h *CheckpointHandler) Scan(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.GetTeamID(r.Context())

	checkpointNumber, err := strconv.Atoi(mux.Vars(r)["checkpointNumber"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid checkpoint number")
		return
	}

	result, err := h.checkpointSvc.Scan(r.Context(), teamID, checkpointNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Pause handles POST /api/checkpoint/pause/{teamId} (admin)
func (h *CheckpointHandler) Pause(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamId"]

	team, err := h.checkpointSvc.Pause(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "teamId": team.ID, "isPaused": true})
}

// Unpause handles POST /api/checkpoint/unpause/{teamId} (admin)
func (h *CheckpointHandler) Unpause(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamId"]

	team, err := h.checkpointSvc.Unpause(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "teamId": team.ID, "isPaused": false})
}

// UnpauseAll handles POST /api/checkpoint/unpause-all (admin)
func (h *CheckpointHandler) UnpauseAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.checkpointSvc.UnpauseAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}
