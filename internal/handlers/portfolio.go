package handlers

import (
	"errors"
	"net/http"

	"forexsim/internal/money"
	"forexsim/internal/services"
)

func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	portfolio, err := h.trading.GetPortfolio(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("load portfolio failed")
		respondError(w, http.StatusInternalServerError, "unable to load portfolio")
		return
	}
	respondJSON(w, http.StatusOK, portfolioJSON(portfolio))
}

func (h *Handler) ResetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	portfolio, err := h.trading.Reset(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("reset portfolio failed")
		respondError(w, http.StatusInternalServerError, "unable to reset portfolio")
		return
	}
	respondJSON(w, http.StatusOK, portfolioJSON(portfolio))
}

func (h *Handler) PortfolioValue(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}
	value, err := h.trading.Value(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrRateUnavailable):
			respondError(w, http.StatusServiceUnavailable, "rate_unavailable")
		default:
			respondError(w, http.StatusInternalServerError, "unable to value portfolio")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"inr_balance":     money.FormatMinor(value.INRBalance),
		"usd_held":        money.FormatMinor(value.USDHeld),
		"usd_value_inr":   money.FormatMinor(value.USDValueINR),
		"total_value_inr": money.FormatMinor(value.TotalValueINR),
		"current_rate":    value.Rate,
		"trade_count":     value.TradeCount,
	})
}
