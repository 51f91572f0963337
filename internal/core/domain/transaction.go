package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of balance-affecting event.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// IsValid reports whether t is one of the recorded types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer:
		return true
	}
	return false
}

// Direction says which side of the balance an entry moved.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// Transaction is an immutable ledger entry. Amount is always a magnitude;
// Direction carries the sign.
type Transaction struct {
	ID                    uuid.UUID       `json:"id"`
	AccountID             uuid.UUID       `json:"account_id"`
	Amount                decimal.Decimal `json:"amount"`
	TransactionType       TransactionType `json:"transaction_type"`
	Direction             Direction       `json:"direction"`
	Fee                   decimal.Decimal `json:"fee"`
	Currency              Currency        `json:"currency"`
	CounterpartyAccountID *uuid.UUID      `json:"counterparty_account_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// DirectionFor returns the natural direction of a non-transfer entry.
func DirectionFor(t TransactionType) Direction {
	if t == TransactionTypeDeposit {
		return DirectionCredit
	}
	return DirectionDebit
}

// TransactionStats aggregates an account's entries over a period.
type TransactionStats struct {
	AccountID     uuid.UUID                           `json:"account_id"`
	Currency      Currency                            `json:"currency"`
	Totals        map[TransactionType]decimal.Decimal `json:"totals"`
	Counts        map[TransactionType]int64           `json:"counts"`
	TotalCredited decimal.Decimal                     `json:"total_credited"`
	TotalDebited  decimal.Decimal                     `json:"total_debited"`
	TotalFees     decimal.Decimal                     `json:"total_fees"`
	Period        string                              `json:"period"`
}

// NewTransactionStats returns zeroed stats with every type present.
func NewTransactionStats(accountID uuid.UUID, currency Currency) *TransactionStats {
	s := &TransactionStats{
		AccountID:     accountID,
		Currency:      currency,
		Totals:        make(map[TransactionType]decimal.Decimal, 3),
		Counts:        make(map[TransactionType]int64, 3),
		TotalCredited: decimal.Zero,
		TotalDebited:  decimal.Zero,
		TotalFees:     decimal.Zero,
	}
	for _, t := range []TransactionType{TransactionTypeDeposit, TransactionTypeWithdraw, TransactionTypeTransfer} {
		s.Totals[t] = decimal.Zero
		s.Counts[t] = 0
	}
	return s
}

// Add folds count entries of type t and direction d into the stats.
func (s *TransactionStats) Add(t TransactionType, d Direction, count int64, sum, fees decimal.Decimal) {
	s.Totals[t] = s.Totals[t].Add(sum)
	s.Counts[t] += count
	s.TotalFees = s.TotalFees.Add(fees)
	if d == DirectionCredit {
		s.TotalCredited = s.TotalCredited.Add(sum)
	} else {
		s.TotalDebited = s.TotalDebited.Add(sum)
	}
}
