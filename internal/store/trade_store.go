package store

import (
	"context"
	"time"
)

type TradeStore struct {
	db DB
}

type Trade struct {
	ID              string    `db:"id" json:"id"`
	Seq             int64     `db:"seq" json:"-"`
	UserID          string    `db:"user_id" json:"user_id"`
	TradeType       string    `db:"trade_type" json:"trade_type"`
	AmountUSD       int64     `db:"amount_usd" json:"amount_usd"`
	ExchangeRate    string    `db:"exchange_rate" json:"exchange_rate"`
	AmountINR       int64     `db:"amount_inr" json:"amount_inr"`
	INRBalanceAfter int64     `db:"inr_balance_after" json:"inr_balance_after"`
	USDHeldAfter    int64     `db:"usd_held_after" json:"usd_held_after"`
	ExecutedAt      time.Time `db:"executed_at" json:"executed_at"`
}

type TradeInput struct {
	ID              string
	UserID          string
	TradeType       string
	AmountUSD       int64
	ExchangeRate    string
	AmountINR       int64
	INRBalanceAfter int64
	USDHeldAfter    int64
	ExecutedAt      time.Time
}

func NewTradeStore(db DB) *TradeStore {
	return &TradeStore{db: db}
}

// Insert appends one fill to the ledger. Rows are never updated or deleted;
// seq breaks executed_at ties by insertion order.
func (s *TradeStore) Insert(ctx context.Context, tx Execer, input TradeInput) error {
	query := `
		INSERT INTO trades (id, user_id, trade_type, amount_usd, exchange_rate, amount_inr, inr_balance_after, usd_held_after, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.TradeType, input.AmountUSD, input.ExchangeRate,
		input.AmountINR, input.INRBalanceAfter, input.USDHeldAfter, input.ExecutedAt,
	)
	return err
}

// ListByUser returns the most recent trades, newest first, without scanning
// past the requested window.
func (s *TradeStore) ListByUser(ctx context.Context, userID string, limit int) ([]Trade, error) {
	var rows []Trade
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, seq, user_id, trade_type, amount_usd, exchange_rate, amount_inr,
		       inr_balance_after, usd_held_after, executed_at
		FROM trades
		WHERE user_id = $1
		ORDER BY executed_at DESC, seq DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TradeStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM trades WHERE user_id = $1
	`, userID)
	return count, err
}
