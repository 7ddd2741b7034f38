package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"forexsim/internal/services"
)

type chatRequest struct {
	Content string `json:"content"`
}

func (h *Handler) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	reply, err := h.chat.Send(r.Context(), userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			respondError(w, http.StatusBadRequest, "empty message")
		case errors.Is(err, services.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		default:
			h.log.Error().Err(err).Str("user_id", userID).Msg("chat send failed")
			respondError(w, http.StatusInternalServerError, "unable to send message")
		}
		return
	}
	payload := chatMessageJSON(reply.Message)
	payload["fallback"] = reply.Fallback
	respondJSON(w, http.StatusCreated, payload)
}

func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 50, 200)
	messages, err := h.chat.History(r.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("chat history failed")
		respondError(w, http.StatusInternalServerError, "unable to load chat history")
		return
	}
	payload := make([]map[string]any, 0, len(messages))
	for _, message := range messages {
		payload = append(payload, chatMessageJSON(message))
	}
	respondJSON(w, http.StatusOK, payload)
}
