package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits every stored amount carries.
const MoneyPlaces int32 = 2

// AccountNumberLength is the number of digits in a generated account number.
const AccountNumberLength = 10

// Currency is an ISO-like currency code from the configured rate table.
type Currency string

const (
	CurrencyNIS Currency = "NIS"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// AccountStatusAction is the administrative action applied to an account.
type AccountStatusAction string

const (
	AccountActionActivate AccountStatusAction = "activate"
	AccountActionSuspend  AccountStatusAction = "suspend"
)

// Account is a user's single-currency bank account.
type Account struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      Currency        `json:"currency"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CanWithdraw reports whether taking amount keeps the balance at or above floor.
func (a *Account) CanWithdraw(amount, floor decimal.Decimal) bool {
	return a.Balance.Sub(amount).GreaterThanOrEqual(floor)
}

// CanTransfer reports whether amount is covered by the balance alone.
// Transfers never dip into the overdraft allowance.
func (a *Account) CanTransfer(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// IsEmpty reports whether the balance is exactly zero.
func (a *Account) IsEmpty() bool {
	return a.Balance.IsZero()
}

// RoundMoney rounds half away from zero to MoneyPlaces, which is half-up for
// the non-negative amounts the ledger stores.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
