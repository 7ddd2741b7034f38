package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"forexsim/internal/db"
	"forexsim/internal/forex"
	"forexsim/internal/money"
	"forexsim/internal/store"
	"forexsim/internal/websocket"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidTradeType  = errors.New("invalid trade type")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRateUnavailable   = errors.New("exchange rate unavailable")
	ErrUserNotFound      = errors.New("user not found")
)

const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

type PortfolioStore interface {
	EnsureDefault(ctx context.Context, tx store.Execer, userID string) error
	Get(ctx context.Context, userID string) (store.Portfolio, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.Portfolio, error)
	UpdateBalances(ctx context.Context, tx store.Execer, userID string, inrBalance, usdHeld int64) error
}

type TradeStore interface {
	Insert(ctx context.Context, tx store.Execer, input store.TradeInput) error
	ListByUser(ctx context.Context, userID string, limit int) ([]store.Trade, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type RateSource interface {
	CurrentRate(ctx context.Context) (forex.Quote, error)
}

type PortfolioHub interface {
	BroadcastPortfolio(userID string, update websocket.PortfolioUpdate)
}

// TradingService owns portfolio mutations and the trade ledger. All
// mutations for one user run under that user's portfolio row lock inside a
// serializable transaction, so concurrent fills for the same user apply
// sequentially while different users proceed in parallel.
type TradingService struct {
	txRunner   db.TxRunner
	portfolios PortfolioStore
	trades     TradeStore
	rates      RateSource
	hub        PortfolioHub
	log        zerolog.Logger
}

func NewTradingService(txRunner db.TxRunner, portfolios PortfolioStore, trades TradeStore, rates RateSource, hub PortfolioHub, log zerolog.Logger) *TradingService {
	return &TradingService{
		txRunner:   txRunner,
		portfolios: portfolios,
		trades:     trades,
		rates:      rates,
		hub:        hub,
		log:        log.With().Str("service", "trading").Logger(),
	}
}

// GetPortfolio returns the user's balances, creating the default portfolio
// on first access.
func (s *TradingService) GetPortfolio(ctx context.Context, userID string) (store.Portfolio, error) {
	portfolio, err := s.portfolios.Get(ctx, userID)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.Portfolio{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.portfolios.EnsureDefault(ctx, tx, userID); err != nil {
			return translateUserFK(err)
		}
		portfolio, err = s.portfolios.GetForUpdate(ctx, tx, userID)
		return err
	})
	if err != nil {
		return store.Portfolio{}, err
	}
	return portfolio, nil
}

// Execute fills a BUY or SELL immediately at the sampled rate. The balance
// update and the ledger append commit together; the recorded *_after fields
// are exactly the balances this fill produced. Failures leave no trace: no
// partial fill, no queueing, no retry.
func (s *TradingService) Execute(ctx context.Context, userID, tradeType string, amountUSD int64) (store.Trade, error) {
	if tradeType != TradeTypeBuy && tradeType != TradeTypeSell {
		return store.Trade{}, ErrInvalidTradeType
	}
	if amountUSD <= 0 {
		return store.Trade{}, ErrInvalidAmount
	}

	quote, err := s.rates.CurrentRate(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("rate sample failed")
		return store.Trade{}, ErrRateUnavailable
	}
	amountINR := money.ConvertMinor(amountUSD, quote.Rate)
	if amountINR <= 0 {
		return store.Trade{}, ErrInvalidAmount
	}

	var trade store.Trade
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.portfolios.EnsureDefault(ctx, tx, userID); err != nil {
			return translateUserFK(err)
		}
		portfolio, err := s.portfolios.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		newINR := portfolio.INRBalance
		newUSD := portfolio.USDHeld
		if tradeType == TradeTypeBuy {
			newINR -= amountINR
			newUSD += amountUSD
		} else {
			newINR += amountINR
			newUSD -= amountUSD
		}
		if newINR < 0 || newUSD < 0 {
			return ErrInsufficientFunds
		}
		if err := s.portfolios.UpdateBalances(ctx, tx, userID, newINR, newUSD); err != nil {
			return err
		}
		input := store.TradeInput{
			ID:              uuid.NewString(),
			UserID:          userID,
			TradeType:       tradeType,
			AmountUSD:       amountUSD,
			ExchangeRate:    quote.Rate.StringFixedBank(4),
			AmountINR:       amountINR,
			INRBalanceAfter: newINR,
			USDHeldAfter:    newUSD,
			ExecutedAt:      time.Now().UTC(),
		}
		if err := s.trades.Insert(ctx, tx, input); err != nil {
			return err
		}
		trade = store.Trade{
			ID:              input.ID,
			UserID:          input.UserID,
			TradeType:       input.TradeType,
			AmountUSD:       input.AmountUSD,
			ExchangeRate:    input.ExchangeRate,
			AmountINR:       input.AmountINR,
			INRBalanceAfter: input.INRBalanceAfter,
			USDHeldAfter:    input.USDHeldAfter,
			ExecutedAt:      input.ExecutedAt,
		}
		return nil
	})
	if err != nil {
		return store.Trade{}, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("trade_type", tradeType).
		Str("amount_usd", money.FormatMinor(amountUSD)).
		Str("rate", trade.ExchangeRate).
		Msg("trade filled")
	s.hub.BroadcastPortfolio(userID, websocket.PortfolioUpdate{
		INRBalance: money.FormatMinor(trade.INRBalanceAfter),
		USDHeld:    money.FormatMinor(trade.USDHeldAfter),
	})
	return trade, nil
}

// Reset restores the default balances. Idempotent, and the trade ledger is
// left intact: trades made before a reset stay auditable.
func (s *TradingService) Reset(ctx context.Context, userID string) (store.Portfolio, error) {
	var portfolio store.Portfolio
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.portfolios.EnsureDefault(ctx, tx, userID); err != nil {
			return translateUserFK(err)
		}
		current, err := s.portfolios.GetForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.portfolios.UpdateBalances(ctx, tx, userID, store.DefaultINRBalanceMinor, store.DefaultUSDHeldMinor); err != nil {
			return err
		}
		portfolio = current
		portfolio.INRBalance = store.DefaultINRBalanceMinor
		portfolio.USDHeld = store.DefaultUSDHeldMinor
		return nil
	})
	if err != nil {
		return store.Portfolio{}, err
	}
	s.hub.BroadcastPortfolio(userID, websocket.PortfolioUpdate{
		INRBalance: money.FormatMinor(portfolio.INRBalance),
		USDHeld:    money.FormatMinor(portfolio.USDHeld),
	})
	return portfolio, nil
}

// History returns the most recent trades, newest first.
func (s *TradingService) History(ctx context.Context, userID string, limit int) ([]store.Trade, error) {
	return s.trades.ListByUser(ctx, userID, limit)
}

type PortfolioValue struct {
	INRBalance    int64
	USDHeld       int64
	USDValueINR   int64
	TotalValueINR int64
	Rate          string
	Timestamp     time.Time
	TradeCount    int64
}

// Value marks the portfolio to the current rate: held USD valued in INR plus
// the INR balance.
func (s *TradingService) Value(ctx context.Context, userID string) (PortfolioValue, error) {
	portfolio, err := s.GetPortfolio(ctx, userID)
	if err != nil {
		return PortfolioValue{}, err
	}
	quote, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return PortfolioValue{}, ErrRateUnavailable
	}
	count, err := s.trades.CountByUser(ctx, userID)
	if err != nil {
		return PortfolioValue{}, err
	}
	usdValueINR := money.ConvertMinor(portfolio.USDHeld, quote.Rate)
	return PortfolioValue{
		INRBalance:    portfolio.INRBalance,
		USDHeld:       portfolio.USDHeld,
		USDValueINR:   usdValueINR,
		TotalValueINR: portfolio.INRBalance + usdValueINR,
		Rate:          quote.Rate.StringFixedBank(4),
		Timestamp:     quote.Timestamp,
		TradeCount:    count,
	}, nil
}

func translateUserFK(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrUserNotFound
	}
	return err
}
