package handlers

import (
	"context"

	"forexsim/internal/forex"
	"forexsim/internal/services"
	"forexsim/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, id, username, email string) error
	GetByID(ctx context.Context, userID string) (store.User, error)
	GetByUsername(ctx context.Context, username string) (store.User, error)
}

type TradingService interface {
	GetPortfolio(ctx context.Context, userID string) (store.Portfolio, error)
	Execute(ctx context.Context, userID, tradeType string, amountUSD int64) (store.Trade, error)
	Reset(ctx context.Context, userID string) (store.Portfolio, error)
	History(ctx context.Context, userID string, limit int) ([]store.Trade, error)
	Value(ctx context.Context, userID string) (services.PortfolioValue, error)
}

type ChatService interface {
	Send(ctx context.Context, userID, content string) (services.ChatReply, error)
	History(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error)
}

type ForexClient interface {
	CurrentRate(ctx context.Context) (forex.Quote, error)
	Intraday(ctx context.Context, interval, outputsize string) ([]forex.Candle, error)
}
