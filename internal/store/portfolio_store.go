package store

import (
	"context"
	"time"
)

const (
	DefaultINRBalanceMinor int64 = 10000000 // ₹100000.00 in paise
	DefaultUSDHeldMinor    int64 = 0
)

type PortfolioStore struct {
	db DB
}

type Portfolio struct {
	UserID     string    `db:"user_id" json:"user_id"`
	INRBalance int64     `db:"inr_balance" json:"inr_balance"`
	USDHeld    int64     `db:"usd_held" json:"usd_held"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func NewPortfolioStore(db DB) *PortfolioStore {
	return &PortfolioStore{db: db}
}

// EnsureDefault lazily creates the user's portfolio with default balances.
// A no-op when the row already exists, so every existing user has exactly
// one portfolio and reads never observe an absent one.
func (s *PortfolioStore) EnsureDefault(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO portfolios (user_id, inr_balance, usd_held)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, DefaultINRBalanceMinor, DefaultUSDHeldMinor)
	return err
}

func (s *PortfolioStore) Get(ctx context.Context, userID string) (Portfolio, error) {
	var row Portfolio
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, inr_balance, usd_held, updated_at
		FROM portfolios
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return Portfolio{}, err
	}
	return row, nil
}

// GetForUpdate takes the row lock that serializes all mutations for one user.
func (s *PortfolioStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (Portfolio, error) {
	var row Portfolio
	err := tx.GetContext(ctx, &row, `
		SELECT user_id, inr_balance, usd_held, updated_at
		FROM portfolios
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return Portfolio{}, err
	}
	return row, nil
}

func (s *PortfolioStore) UpdateBalances(ctx context.Context, tx Execer, userID string, inrBalance, usdHeld int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE portfolios
		SET inr_balance = $1, usd_held = $2, updated_at = NOW()
		WHERE user_id = $3
	`, inrBalance, usdHeld, userID)
	return err
}
