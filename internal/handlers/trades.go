package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"forexsim/internal/services"
)

type tradeRequest struct {
	TradeType string `json:"trade_type"`
	AmountUSD any    `json:"amount_usd"`
}

func (h *Handler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountUSD, err := parseAmountMinor(req.AmountUSD)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	trade, err := h.trading.Execute(r.Context(), userID, req.TradeType, amountUSD)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTradeType), errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "invalid_request")
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusBadRequest, "insufficient_funds")
		case errors.Is(err, services.ErrRateUnavailable):
			respondError(w, http.StatusServiceUnavailable, "rate_unavailable")
		case errors.Is(err, services.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		default:
			h.log.Error().Err(err).Str("user_id", userID).Msg("trade failed")
			respondError(w, http.StatusInternalServerError, "trade_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, tradeJSON(trade))
}

func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), 50, 500)
	trades, err := h.trading.History(r.Context(), userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("list trades failed")
		respondError(w, http.StatusInternalServerError, "unable to load trades")
		return
	}
	payload := make([]map[string]any, 0, len(trades))
	for _, trade := range trades {
		payload = append(payload, tradeJSON(trade))
	}
	respondJSON(w, http.StatusOK, payload)
}
