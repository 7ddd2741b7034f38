package handlers

import (
	"encoding/json"
	"net/http"

	"forexsim/internal/money"
	"forexsim/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func portfolioJSON(portfolio store.Portfolio) map[string]any {
	return map[string]any{
		"user_id":     portfolio.UserID,
		"inr_balance": money.FormatMinor(portfolio.INRBalance),
		"usd_held":    money.FormatMinor(portfolio.USDHeld),
		"updated_at":  portfolio.UpdatedAt,
	}
}

func tradeJSON(trade store.Trade) map[string]any {
	return map[string]any{
		"id":                trade.ID,
		"user_id":           trade.UserID,
		"trade_type":        trade.TradeType,
		"amount_usd":        money.FormatMinor(trade.AmountUSD),
		"exchange_rate":     trade.ExchangeRate,
		"amount_inr":        money.FormatMinor(trade.AmountINR),
		"inr_balance_after": money.FormatMinor(trade.INRBalanceAfter),
		"usd_held_after":    money.FormatMinor(trade.USDHeldAfter),
		"executed_at":       trade.ExecutedAt,
	}
}

func chatMessageJSON(message store.ChatMessage) map[string]any {
	return map[string]any{
		"id":         message.ID,
		"user_id":    message.UserID,
		"role":       message.Role,
		"content":    message.Content,
		"created_at": message.CreatedAt,
	}
}
