package memory

import (
	"context"
	"errors"
	"time"

	"banking-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TreasuryRepo implements ports.TreasuryRepository on a Store.
type TreasuryRepo struct {
	store *Store
}

// NewTreasuryRepo creates a new TreasuryRepo.
func NewTreasuryRepo(store *Store) *TreasuryRepo {
	return &TreasuryRepo{store: store}
}

// Ensure seeds the treasury once and returns the current row.
func (r *TreasuryRepo) Ensure(ctx context.Context, startingBalance decimal.Decimal) (*domain.Treasury, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.treasury == nil {
		r.store.treasury = &domain.Treasury{
			ID:        domain.TreasuryRowID,
			Balance:   startingBalance,
			UpdatedAt: time.Now().UTC(),
		}
	}
	t := *r.store.treasury
	return &t, nil
}

// Get reads the committed treasury.
func (r *TreasuryRepo) Get(ctx context.Context) (*domain.Treasury, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if r.store.treasury == nil {
		return nil, nil
	}
	t := *r.store.treasury
	return &t, nil
}

// GetForUpdate reads the treasury as tx sees it.
func (r *TreasuryRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Treasury, error) {
	mt, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if mt.treasury != nil {
		t := *mt.treasury
		return &t, nil
	}
	return r.Get(ctx)
}

// UpdateBalance stages a new treasury balance.
func (r *TreasuryRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, balance decimal.Decimal) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	current, err := r.GetForUpdate(ctx, tx)
	if err != nil {
		return err
	}
	if current == nil {
		return errors.New("treasury row missing")
	}
	current.Balance = balance
	current.UpdatedAt = time.Now().UTC()
	mt.treasury = current
	return nil
}
