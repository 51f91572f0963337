package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names a committed ledger event.
type EventType string

const (
	EventAccountOpened        EventType = "account.opened"
	EventAccountClosed        EventType = "account.closed"
	EventAccountStatusChanged EventType = "account.status_changed"
	EventDeposited            EventType = "ledger.deposited"
	EventWithdrawn            EventType = "ledger.withdrawn"
	EventTransferred          EventType = "ledger.transferred"
	EventLoanOriginated       EventType = "loan.originated"
)

// LedgerEvent describes a state change after it has been committed.
type LedgerEvent struct {
	ID                   uuid.UUID        `json:"id"`
	Type                 EventType        `json:"type"`
	AccountID            uuid.UUID        `json:"account_id"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Currency             Currency         `json:"currency,omitempty"`
	Balance              *decimal.Decimal `json:"balance,omitempty"`
	CounterpartyID       *uuid.UUID       `json:"counterparty_id,omitempty"`
	CreditedAmount       *decimal.Decimal `json:"credited_amount,omitempty"`
	CounterpartyCurrency Currency         `json:"counterparty_currency,omitempty"`
	LoanID               *uuid.UUID       `json:"loan_id,omitempty"`
	Active               *bool            `json:"active,omitempty"`
	OccurredAt           time.Time        `json:"occurred_at"`
}

// NewLedgerEvent stamps a fresh event for accountID.
func NewLedgerEvent(t EventType, accountID uuid.UUID) LedgerEvent {
	return LedgerEvent{
		ID:         uuid.New(),
		Type:       t,
		AccountID:  accountID,
		OccurredAt: time.Now().UTC(),
	}
}
