package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"qrhunt/internal/service"
	"qrhunt/internal/transport/rest/middleware"
)

// QRHandler handles placard token redemption
type QRHandler struct {
	gameSvc *service.GameService
}

// NewQRHandler creates a new QR handler
func NewQRHandler(gameSvc *service.GameService) *QRHandler {
	return &QRHandler{gameSvc: gameSvc}
}

// Resolve handles POST /api/qr/resolve/{token}
func (h *QRHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.GetTeamID(r.Context())
	token := mux.Vars(r)["token"]

	result, err := h.gameSvc.RedeemToken(r.Context(), teamID, token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
