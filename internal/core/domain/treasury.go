package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TreasuryRowID is the primary key of the single treasury row.
const TreasuryRowID = 1

// Treasury is the bank's own cash position, the source of loan principal.
type Treasury struct {
	ID        int             `json:"-"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Covers reports whether the treasury holds at least amount.
func (t *Treasury) Covers(amount decimal.Decimal) bool {
	return t.Balance.GreaterThanOrEqual(amount)
}
