package service

import (
	"context"
	"fmt"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BankTreasury guards the bank's cash position. It is created once at
// startup by NewBankTreasury, which guarantees the treasury row exists, and
// is then shared by reference with the loan book.
type BankTreasury struct {
	repo    ports.TreasuryRepository
	maxLoan decimal.Decimal
	log     zerolog.Logger
}

// NewBankTreasury ensures the treasury row exists, seeding it with
// startingBalance on first run.
func NewBankTreasury(
	ctx context.Context,
	repo ports.TreasuryRepository,
	startingBalance decimal.Decimal,
	maxLoan decimal.Decimal,
	log zerolog.Logger,
) (*BankTreasury, error) {
	t, err := repo.Ensure(ctx, startingBalance)
	if err != nil {
		return nil, fmt.Errorf("ensure treasury: %w", err)
	}

	log.Info().
		Str("balance", t.Balance.StringFixed(domain.MoneyPlaces)).
		Str("max_loan", maxLoan.StringFixed(domain.MoneyPlaces)).
		Msg("treasury ready")

	return &BankTreasury{repo: repo, maxLoan: maxLoan, log: log}, nil
}

// MaxLoanAmount is the per-loan cap.
func (b *BankTreasury) MaxLoanAmount() decimal.Decimal {
	return b.maxLoan
}

// CanGrantLoan checks the cap first, then the treasury's cover.
func (b *BankTreasury) CanGrantLoan(t *domain.Treasury, amount decimal.Decimal) error {
	if amount.GreaterThan(b.maxLoan) {
		return apperror.ErrLoanExceedsMaxLimit(b.maxLoan.StringFixed(domain.MoneyPlaces))
	}
	if !t.Covers(amount) {
		return apperror.ErrInsufficientTreasuryFunds()
	}
	return nil
}

// Balance returns the current treasury snapshot.
func (b *BankTreasury) Balance(ctx context.Context) (*domain.Treasury, error) {
	t, err := b.repo.Get(ctx)
	if err != nil {
		return nil, wrapErr("get treasury", err)
	}
	if t == nil {
		return nil, apperror.InternalError(fmt.Errorf("treasury not initialised"))
	}
	return t, nil
}

// Lock row-locks the treasury inside tx.
func (b *BankTreasury) Lock(ctx context.Context, tx pgx.Tx) (*domain.Treasury, error) {
	t, err := b.repo.GetForUpdate(ctx, tx)
	if err != nil {
		return nil, wrapErr("lock treasury", err)
	}
	if t == nil {
		return nil, apperror.InternalError(fmt.Errorf("treasury not initialised"))
	}
	return t, nil
}

// Debit lowers a locked treasury by amount.
func (b *BankTreasury) Debit(ctx context.Context, tx pgx.Tx, t *domain.Treasury, amount decimal.Decimal) error {
	newBalance := t.Balance.Sub(amount)
	if err := b.repo.UpdateBalance(ctx, tx, newBalance); err != nil {
		return wrapErr("debit treasury", err)
	}
	t.Balance = newBalance
	return nil
}
