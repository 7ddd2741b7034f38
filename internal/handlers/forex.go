package handlers

import (
	"net/http"
	"time"

	"forexsim/internal/forex"
)

func (h *Handler) CurrentRate(w http.ResponseWriter, r *http.Request) {
	quote, err := h.forex.CurrentRate(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "rate_unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"from_currency": "USD",
		"to_currency":   "INR",
		"rate":          quote.Rate.StringFixedBank(4),
		"timestamp":     quote.Timestamp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ChartData(w http.ResponseWriter, r *http.Request) {
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "5min"
	}
	outputsize := r.URL.Query().Get("outputsize")
	if outputsize == "" {
		outputsize = "compact"
	}

	candles, err := h.forex.Intraday(r.Context(), interval, outputsize)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "chart data unavailable")
		return
	}
	candles = forex.WithSignals(candles, 20, 50)
	respondJSON(w, http.StatusOK, map[string]any{
		"data":     candles,
		"interval": interval,
		"symbol":   "USD/INR",
	})
}
