package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"forexsim/internal/forex"
	"forexsim/internal/store"
	"forexsim/internal/websocket"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type memPortfolioStore struct {
	rows map[string]*store.Portfolio
}

func newMemPortfolioStore() *memPortfolioStore {
	return &memPortfolioStore{rows: make(map[string]*store.Portfolio)}
}

func (s *memPortfolioStore) EnsureDefault(ctx context.Context, tx store.Execer, userID string) error {
	if _, ok := s.rows[userID]; !ok {
		s.rows[userID] = &store.Portfolio{
			UserID:     userID,
			INRBalance: store.DefaultINRBalanceMinor,
			USDHeld:    store.DefaultUSDHeldMinor,
			UpdatedAt:  time.Now().UTC(),
		}
	}
	return nil
}

func (s *memPortfolioStore) Get(ctx context.Context, userID string) (store.Portfolio, error) {
	row, ok := s.rows[userID]
	if !ok {
		return store.Portfolio{}, sql.ErrNoRows
	}
	return *row, nil
}

func (s *memPortfolioStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (store.Portfolio, error) {
	return s.Get(ctx, userID)
}

func (s *memPortfolioStore) UpdateBalances(ctx context.Context, tx store.Execer, userID string, inrBalance, usdHeld int64) error {
	row, ok := s.rows[userID]
	if !ok {
		return sql.ErrNoRows
	}
	row.INRBalance = inrBalance
	row.USDHeld = usdHeld
	row.UpdatedAt = time.Now().UTC()
	return nil
}

type memTradeStore struct {
	trades    []store.TradeInput
	insertErr error
}

func (s *memTradeStore) Insert(ctx context.Context, tx store.Execer, input store.TradeInput) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.trades = append(s.trades, input)
	return nil
}

func (s *memTradeStore) ListByUser(ctx context.Context, userID string, limit int) ([]store.Trade, error) {
	var out []store.Trade
	for i := len(s.trades) - 1; i >= 0 && len(out) < limit; i-- {
		input := s.trades[i]
		if input.UserID != userID {
			continue
		}
		out = append(out, store.Trade{
			ID:              input.ID,
			UserID:          input.UserID,
			TradeType:       input.TradeType,
			AmountUSD:       input.AmountUSD,
			ExchangeRate:    input.ExchangeRate,
			AmountINR:       input.AmountINR,
			INRBalanceAfter: input.INRBalanceAfter,
			USDHeldAfter:    input.USDHeldAfter,
			ExecutedAt:      input.ExecutedAt,
		})
	}
	return out, nil
}

func (s *memTradeStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, input := range s.trades {
		if input.UserID == userID {
			count++
		}
	}
	return count, nil
}

type stubRates struct {
	rate string
	err  error
}

func (s stubRates) CurrentRate(ctx context.Context) (forex.Quote, error) {
	if s.err != nil {
		return forex.Quote{}, s.err
	}
	return forex.Quote{Rate: decimal.RequireFromString(s.rate), Timestamp: time.Now().UTC()}, nil
}

type stubHub struct {
	updates []websocket.PortfolioUpdate
}

func (s *stubHub) BroadcastPortfolio(userID string, update websocket.PortfolioUpdate) {
	s.updates = append(s.updates, update)
}

func newTestTradingService(portfolios *memPortfolioStore, trades *memTradeStore, rates RateSource) (*TradingService, *stubHub) {
	hub := &stubHub{}
	service := NewTradingService(fakeTxRunner{}, portfolios, trades, rates, hub, zerolog.Nop())
	return service, hub
}

func TestExecuteBuyThenSell(t *testing.T) {
	portfolios := newMemPortfolioStore()
	trades := &memTradeStore{}
	rates := &stubRates{rate: "83.00"}
	hub := &stubHub{}
	service := NewTradingService(fakeTxRunner{}, portfolios, trades, rates, hub, zerolog.Nop())

	buy, err := service.Execute(context.Background(), "user-1", TradeTypeBuy, 10000)
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if buy.AmountINR != 830000 {
		t.Fatalf("buy amount_inr = %d, want 830000", buy.AmountINR)
	}
	if buy.INRBalanceAfter != 9170000 || buy.USDHeldAfter != 10000 {
		t.Fatalf("buy balances = %d/%d, want 9170000/10000", buy.INRBalanceAfter, buy.USDHeldAfter)
	}
	if buy.ExchangeRate != "83.0000" {
		t.Fatalf("buy rate = %q, want 83.0000", buy.ExchangeRate)
	}

	portfolio, _ := portfolios.Get(context.Background(), "user-1")
	if portfolio.INRBalance != buy.INRBalanceAfter || portfolio.USDHeld != buy.USDHeldAfter {
		t.Fatalf("record snapshot diverges from live portfolio")
	}

	rates.rate = "84.50"
	sell, err := service.Execute(context.Background(), "user-1", TradeTypeSell, 10000)
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if sell.AmountINR != 845000 {
		t.Fatalf("sell amount_inr = %d, want 845000", sell.AmountINR)
	}
	if sell.INRBalanceAfter != 10015000 || sell.USDHeldAfter != 0 {
		t.Fatalf("sell balances = %d/%d, want 10015000/0", sell.INRBalanceAfter, sell.USDHeldAfter)
	}
	if len(trades.trades) != 2 {
		t.Fatalf("ledger has %d records, want 2", len(trades.trades))
	}
	if len(hub.updates) != 2 {
		t.Fatalf("expected 2 portfolio broadcasts, got %d", len(hub.updates))
	}
}

func TestExecuteInsufficientFundsLeavesStateUnchanged(t *testing.T) {
	portfolios := newMemPortfolioStore()
	portfolios.rows["user-1"] = &store.Portfolio{UserID: "user-1"}
	trades := &memTradeStore{}
	service, hub := newTestTradingService(portfolios, trades, stubRates{rate: "83.00"})

	_, err := service.Execute(context.Background(), "user-1", TradeTypeBuy, 100)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	portfolio, _ := portfolios.Get(context.Background(), "user-1")
	if portfolio.INRBalance != 0 || portfolio.USDHeld != 0 {
		t.Fatalf("portfolio mutated on rejected trade: %+v", portfolio)
	}
	if len(trades.trades) != 0 {
		t.Fatalf("ledger grew on rejected trade")
	}
	if len(hub.updates) != 0 {
		t.Fatalf("broadcast sent for rejected trade")
	}
}

func TestExecuteSellWithoutHoldings(t *testing.T) {
	portfolios := newMemPortfolioStore()
	trades := &memTradeStore{}
	service, _ := newTestTradingService(portfolios, trades, stubRates{rate: "83.00"})

	_, err := service.Execute(context.Background(), "user-1", TradeTypeSell, 100)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
}

func TestExecuteValidation(t *testing.T) {
	portfolios := newMemPortfolioStore()
	trades := &memTradeStore{}
	service, _ := newTestTradingService(portfolios, trades, stubRates{rate: "83.00"})

	if _, err := service.Execute(context.Background(), "user-1", "HOLD", 100); !errors.Is(err, ErrInvalidTradeType) {
		t.Fatalf("error = %v, want ErrInvalidTradeType", err)
	}
	if _, err := service.Execute(context.Background(), "user-1", TradeTypeBuy, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}
	if _, err := service.Execute(context.Background(), "user-1", TradeTypeBuy, -100); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}
	if len(portfolios.rows) != 0 || len(trades.trades) != 0 {
		t.Fatalf("rejected request touched the stores")
	}
}

func TestExecuteRateUnavailable(t *testing.T) {
	portfolios := newMemPortfolioStore()
	trades := &memTradeStore{}
	service, _ := newTestTradingService(portfolios, trades, stubRates{err: errors.New("upstream down")})

	_, err := service.Execute(context.Background(), "user-1", TradeTypeBuy, 100)
	if !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("error = %v, want ErrRateUnavailable", err)
	}
	if len(trades.trades) != 0 {
		t.Fatalf("ledger grew without a rate")
	}
}

func TestResetIdempotentAndKeepsLedger(t *testing.T) {
	portfolios := newMemPortfolioStore()
	trades := &memTradeStore{}
	service, _ := newTestTradingService(portfolios, trades, &stubRates{rate: "83.00"})

	if _, err := service.Execute(context.Background(), "user-1", TradeTypeBuy, 10000); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	ledgerBefore := len(trades.trades)

	first, err := service.Reset(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	second, err := service.Reset(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second reset failed: %v", err)
	}
	for _, portfolio := range []store.Portfolio{first, second} {
		if portfolio.INRBalance != store.DefaultINRBalanceMinor || portfolio.USDHeld != store.DefaultUSDHeldMinor {
			t.Fatalf("reset portfolio = %d/%d, want defaults", portfolio.INRBalance, portfolio.USDHeld)
		}
	}
	if len(trades.trades) != ledgerBefore {
		t.Fatalf("reset changed ledger size: %d -> %d", ledgerBefore, len(trades.trades))
	}
}

func TestGetPortfolioLazyCreatesDefaults(t *testing.T) {
	portfolios := newMemPortfolioStore()
	service, _ := newTestTradingService(portfolios, &memTradeStore{}, stubRates{rate: "83.00"})

	portfolio, err := service.GetPortfolio(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if portfolio.INRBalance != store.DefaultINRBalanceMinor || portfolio.USDHeld != 0 {
		t.Fatalf("lazy portfolio = %d/%d, want defaults", portfolio.INRBalance, portfolio.USDHeld)
	}
}

// Replaying ledger deltas from the defaults must land on the live balances.
func TestLedgerReplayReproducesPortfolio(t *testing.T) {
	portfolios := newMemPortfolioStore()
	trades := &memTradeStore{}
	rates := &stubRates{rate: "83.00"}
	service, _ := newTestTradingService(portfolios, trades, rates)

	steps := []struct {
		rate      string
		tradeType string
		amountUSD int64
	}{
		{"83.00", TradeTypeBuy, 10000},
		{"82.40", TradeTypeBuy, 2500},
		{"84.50", TradeTypeSell, 4000},
		{"83.75", TradeTypeSell, 1500},
	}
	for _, step := range steps {
		rates.rate = step.rate
		if _, err := service.Execute(context.Background(), "user-1", step.tradeType, step.amountUSD); err != nil {
			t.Fatalf("step %+v failed: %v", step, err)
		}
	}

	inr := store.DefaultINRBalanceMinor
	usd := store.DefaultUSDHeldMinor
	for _, record := range trades.trades {
		if record.TradeType == TradeTypeBuy {
			inr -= record.AmountINR
			usd += record.AmountUSD
		} else {
			inr += record.AmountINR
			usd -= record.AmountUSD
		}
		if record.INRBalanceAfter != inr || record.USDHeldAfter != usd {
			t.Fatalf("record snapshot %d/%d diverges from replay %d/%d", record.INRBalanceAfter, record.USDHeldAfter, inr, usd)
		}
	}
	portfolio, _ := portfolios.Get(context.Background(), "user-1")
	if portfolio.INRBalance != inr || portfolio.USDHeld != usd {
		t.Fatalf("replay %d/%d diverges from live portfolio %d/%d", inr, usd, portfolio.INRBalance, portfolio.USDHeld)
	}
}

func TestValueMarksToCurrentRate(t *testing.T) {
	portfolios := newMemPortfolioStore()
	trades := &memTradeStore{}
	rates := &stubRates{rate: "83.00"}
	service, _ := newTestTradingService(portfolios, trades, rates)

	if _, err := service.Execute(context.Background(), "user-1", TradeTypeBuy, 10000); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	rates.rate = "84.00"
	value, err := service.Value(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if value.USDValueINR != 840000 {
		t.Fatalf("usd value = %d, want 840000", value.USDValueINR)
	}
	if value.TotalValueINR != 9170000+840000 {
		t.Fatalf("total value = %d, want %d", value.TotalValueINR, 9170000+840000)
	}
	if value.TradeCount != 1 {
		t.Fatalf("trade count = %d, want 1", value.TradeCount)
	}
}
