package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"forexsim/internal/config"
	"forexsim/internal/forex"
	"forexsim/internal/services"
	"forexsim/internal/store"
	"forexsim/internal/websocket"
)

type stubUserStore struct {
	createFn        func(ctx context.Context, id, username, email string) error
	getByIDFn       func(ctx context.Context, userID string) (store.User, error)
	getByUsernameFn func(ctx context.Context, username string) (store.User, error)
}

func (s stubUserStore) Create(ctx context.Context, id, username, email string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, id, username, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (store.User, error) {
	if s.getByUsernameFn == nil {
		return store.User{Username: username}, nil
	}
	return s.getByUsernameFn(ctx, username)
}

type stubTradingService struct {
	getPortfolioFn func(ctx context.Context, userID string) (store.Portfolio, error)
	executeFn      func(ctx context.Context, userID, tradeType string, amountUSD int64) (store.Trade, error)
	resetFn        func(ctx context.Context, userID string) (store.Portfolio, error)
	historyFn      func(ctx context.Context, userID string, limit int) ([]store.Trade, error)
	valueFn        func(ctx context.Context, userID string) (services.PortfolioValue, error)
}

func (s stubTradingService) GetPortfolio(ctx context.Context, userID string) (store.Portfolio, error) {
	if s.getPortfolioFn == nil {
		return store.Portfolio{UserID: userID}, nil
	}
	return s.getPortfolioFn(ctx, userID)
}

func (s stubTradingService) Execute(ctx context.Context, userID, tradeType string, amountUSD int64) (store.Trade, error) {
	if s.executeFn == nil {
		return store.Trade{}, nil
	}
	return s.executeFn(ctx, userID, tradeType, amountUSD)
}

func (s stubTradingService) Reset(ctx context.Context, userID string) (store.Portfolio, error) {
	if s.resetFn == nil {
		return store.Portfolio{UserID: userID}, nil
	}
	return s.resetFn(ctx, userID)
}

func (s stubTradingService) History(ctx context.Context, userID string, limit int) ([]store.Trade, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, userID, limit)
}

func (s stubTradingService) Value(ctx context.Context, userID string) (services.PortfolioValue, error) {
	if s.valueFn == nil {
		return services.PortfolioValue{}, nil
	}
	return s.valueFn(ctx, userID)
}

type stubChatService struct {
	sendFn    func(ctx context.Context, userID, content string) (services.ChatReply, error)
	historyFn func(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error)
}

func (s stubChatService) Send(ctx context.Context, userID, content string) (services.ChatReply, error) {
	if s.sendFn == nil {
		return services.ChatReply{}, nil
	}
	return s.sendFn(ctx, userID, content)
}

func (s stubChatService) History(ctx context.Context, userID string, limit int) ([]store.ChatMessage, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, userID, limit)
}

type stubForexClient struct {
	currentRateFn func(ctx context.Context) (forex.Quote, error)
	intradayFn    func(ctx context.Context, interval, outputsize string) ([]forex.Candle, error)
}

func (s stubForexClient) CurrentRate(ctx context.Context) (forex.Quote, error) {
	if s.currentRateFn == nil {
		return forex.Quote{}, nil
	}
	return s.currentRateFn(ctx)
}

func (s stubForexClient) Intraday(ctx context.Context, interval, outputsize string) ([]forex.Candle, error) {
	if s.intradayFn == nil {
		return nil, nil
	}
	return s.intradayFn(ctx, interval, outputsize)
}

func newTestHandler(users UserStore, trading TradingService, chat ChatService, forexClient ForexClient) *Handler {
	return New(config.Config{AllowedOrigins: "*"}, users, trading, chat, forexClient, websocket.NewHub(), zerolog.Nop())
}
