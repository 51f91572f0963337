package service

import (
	"context"
	"fmt"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionLog appends ledger entries inside the caller's DB transaction.
type TransactionLog struct {
	repo    ports.TransactionRepository
	feeRate decimal.Decimal
	now     func() time.Time
}

// NewTransactionLog creates a TransactionLog charging feeRate on every entry.
func NewTransactionLog(repo ports.TransactionRepository, feeRate decimal.Decimal) *TransactionLog {
	return &TransactionLog{
		repo:    repo,
		feeRate: feeRate,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Fee returns round_half_up(amount * feeRate, 2).
func (l *TransactionLog) Fee(amount decimal.Decimal) decimal.Decimal {
	return domain.RoundMoney(amount.Mul(l.feeRate))
}

// EntryOption customises a recorded entry.
type EntryOption func(*domain.Transaction)

// WithDirection overrides the entry's default direction.
func WithDirection(d domain.Direction) EntryOption {
	return func(t *domain.Transaction) { t.Direction = d }
}

// WithCounterparty links the entry to the other account of a transfer.
func WithCounterparty(accountID uuid.UUID) EntryOption {
	return func(t *domain.Transaction) {
		id := accountID
		t.CounterpartyAccountID = &id
	}
}

// WithCurrency records the entry in a currency other than the account's.
func WithCurrency(c domain.Currency) EntryOption {
	return func(t *domain.Transaction) { t.Currency = c }
}

// Record writes one entry for account. The fee is derived here and nowhere else.
func (l *TransactionLog) Record(
	ctx context.Context,
	tx pgx.Tx,
	account *domain.Account,
	amount decimal.Decimal,
	txType domain.TransactionType,
	opts ...EntryOption,
) (*domain.Transaction, error) {
	if !txType.IsValid() {
		return nil, apperror.ErrInvalidTransactionType(string(txType))
	}

	entry := &domain.Transaction{
		ID:              uuid.New(),
		AccountID:       account.ID,
		Amount:          amount,
		TransactionType: txType,
		Direction:       domain.DirectionFor(txType),
		Fee:             l.Fee(amount),
		Currency:        account.Currency,
		CreatedAt:       l.now(),
	}
	for _, opt := range opts {
		opt(entry)
	}

	if err := l.repo.Create(ctx, tx, entry); err != nil {
		return nil, wrapErr("record transaction", fmt.Errorf("%s entry: %w", txType, err))
	}
	return entry, nil
}
