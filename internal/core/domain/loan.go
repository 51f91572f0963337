package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan is an amortizing loan drawn from the bank treasury.
type Loan struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"` // annual, percent
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	IsActive     bool            `json:"is_active"`
	Currency     Currency        `json:"currency"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TermMonths counts calendar months between start and end, ignoring days.
func (l *Loan) TermMonths() int {
	return MonthsBetween(l.StartDate, l.EndDate)
}

// MonthsBetween returns (endYear-startYear)*12 + (endMonth-startMonth).
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// LoanRepayment is a loan together with its computed monthly installment.
type LoanRepayment struct {
	Loan
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TermMonths     int             `json:"term_months"`
}
