package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"qrhunt/internal/repository"
	"qrhunt/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps service errors onto the response taxonomy:
// incorrect answers and rejected tokens are 400, out-of-turn events are 403,
// unknown entities are 404, lost update races are 409.
func writeServiceError(w http.ResponseWriter, err error) {
	var tokenErr *service.TokenRejectedError
	var cpErr *service.CheckpointMismatchError

	switch {
	case errors.Is(err, service.ErrIncorrectAnswer):
		writeError(w, http.StatusBadRequest, "Incorrect answer")
	case errors.As(err, &tokenErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": "Invalid or expired QR token",
			"reason":  tokenErr.Reason,
		})
	case errors.As(err, &cpErr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":            cpErr.Error(),
			"awaitingCheckpoint": cpErr.Expected,
		})
	case errors.Is(err, service.ErrInvalidCheckpoint),
		errors.Is(err, service.ErrNoScanExpected):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotYourQuestion),
		errors.Is(err, service.ErrAwaitingGate),
		errors.Is(err, service.ErrTeamPaused),
		errors.Is(err, service.ErrAlreadyFinished),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrInvalidInviteKey):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrQuestionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTeamNameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "progress changed, retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
