package postgres

import (
	"context"
	"errors"
	"fmt"

	"banking-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TreasuryRepo implements ports.TreasuryRepository over the single-row
// treasury table.
type TreasuryRepo struct {
	pool Pool
}

// NewTreasuryRepo creates a new TreasuryRepo.
func NewTreasuryRepo(pool Pool) *TreasuryRepo {
	return &TreasuryRepo{pool: pool}
}

// Ensure seeds the treasury row on first start and returns the current row.
// An existing balance is never reset.
func (r *TreasuryRepo) Ensure(ctx context.Context, startingBalance decimal.Decimal) (*domain.Treasury, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO treasury (id, balance, updated_at) VALUES ($1, $2, NOW()) ON CONFLICT (id) DO NOTHING`,
		domain.TreasuryRowID, startingBalance,
	)
	if err != nil {
		return nil, wrapDBErr("seed treasury", err)
	}

	t, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("treasury row missing after seed")
	}
	return t, nil
}

// Get reads the treasury without locking.
func (r *TreasuryRepo) Get(ctx context.Context) (*domain.Treasury, error) {
	return scanTreasury(r.pool.QueryRow(ctx,
		`SELECT id, balance, updated_at FROM treasury WHERE id = $1`, domain.TreasuryRowID), "get treasury")
}

// GetForUpdate row-locks the treasury. This MUST be called within a transaction.
func (r *TreasuryRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Treasury, error) {
	return scanTreasury(tx.QueryRow(ctx,
		`SELECT id, balance, updated_at FROM treasury WHERE id = $1 FOR UPDATE`, domain.TreasuryRowID), "get treasury for update")
}

// UpdateBalance sets the treasury balance within a transaction.
func (r *TreasuryRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, balance decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE treasury SET balance = $1, updated_at = NOW() WHERE id = $2`,
		balance, domain.TreasuryRowID)
	if err != nil {
		return wrapDBErr("update treasury balance", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("treasury row missing")
	}
	return nil
}

func scanTreasury(row pgx.Row, op string) (*domain.Treasury, error) {
	t := &domain.Treasury{}
	if err := row.Scan(&t.ID, &t.Balance, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDBErr(op, err)
	}
	return t, nil
}
