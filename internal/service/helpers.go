package service

import (
	"fmt"

	"banking-ledger/internal/core/domain"
	"banking-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// wrapErr passes application errors through untouched and turns anything
// else into a SYS_001 internal error annotated with op.
func wrapErr(op string, err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// validateAmount rejects non-positive amounts and sub-cent precision.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrValidation("Amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(domain.MoneyPlaces)) {
		return apperror.ErrValidation("Amount must have at most 2 decimal places")
	}
	return nil
}
