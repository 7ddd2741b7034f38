package handlers

import (
	"errors"
	"strconv"

	"forexsim/internal/money"
)

var errInvalidAmount = errors.New("invalid amount")

// parseAmountMinor accepts the amount as a decimal string or a JSON number
// and converts it to positive minor units.
func parseAmountMinor(raw any) (int64, error) {
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return 0, errInvalidAmount
	}
	amount, err := money.ParseMinor(text)
	if err != nil || amount <= 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

func parseLimit(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
