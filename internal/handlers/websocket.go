package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/google/uuid"

	ws "forexsim/internal/websocket"
)

func (h *Handler) WSPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if _, err := uuid.Parse(userID); err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if _, err := h.users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	ws.ServeWS(w, r, h.hub, userID)
}
