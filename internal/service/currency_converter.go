package service

import (
	"sort"

	"banking-ledger/internal/core/domain"
	"banking-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// CurrencyConverter converts amounts between currencies of a static rate
// table. It holds no mutable state after construction.
type CurrencyConverter struct {
	rates map[domain.Currency]decimal.Decimal
}

// NewCurrencyConverter builds a converter from a code -> rate table.
func NewCurrencyConverter(rates map[string]decimal.Decimal) *CurrencyConverter {
	c := &CurrencyConverter{rates: make(map[domain.Currency]decimal.Decimal, len(rates))}
	for code, rate := range rates {
		c.rates[domain.Currency(code)] = rate
	}
	return c
}

// Supports reports whether currency is in the rate table.
func (c *CurrencyConverter) Supports(currency domain.Currency) bool {
	_, ok := c.rates[currency]
	return ok
}

// Currencies lists the supported currency codes in lexical order.
func (c *CurrencyConverter) Currencies() []domain.Currency {
	out := make([]domain.Currency, 0, len(c.rates))
	for code := range c.rates {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Convert returns amount expressed in the target currency:
// amount * rate[to] / rate[from], rounded half-up to two places exactly once.
func (c *CurrencyConverter) Convert(amount decimal.Decimal, from, to domain.Currency) (decimal.Decimal, error) {
	rateFrom, ok := c.rates[from]
	if !ok {
		return decimal.Zero, apperror.ErrUnsupportedCurrency(string(from))
	}
	rateTo, ok := c.rates[to]
	if !ok {
		return decimal.Zero, apperror.ErrUnsupportedCurrency(string(to))
	}

	// Work in hundredths so the integer quotient is the result in cents.
	cents := amount.Mul(rateTo).Shift(domain.MoneyPlaces)
	q, r := cents.QuoRem(rateFrom, 0)
	if r.Abs().Mul(decimal.NewFromInt(2)).GreaterThanOrEqual(rateFrom) {
		if cents.IsNegative() {
			q = q.Sub(decimal.NewFromInt(1))
		} else {
			q = q.Add(decimal.NewFromInt(1))
		}
	}
	return q.Shift(-domain.MoneyPlaces), nil
}
