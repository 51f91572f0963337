package postgres

import (
	"errors"
	"fmt"

	"banking-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the adapter reacts to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// Unique constraints that carry domain meaning.
const (
	constraintAccountOwner = "accounts_owner_id_key"
	constraintUserEmail    = "users_email_key"
	constraintIdempotency  = "idempotency_logs_pkey"
)

// wrapDBErr annotates err with op. Lock timeouts, deadlocks and serialization
// failures become apperror.ErrContention, and so does losing an insert race on
// an idempotency key: a retry finds the winner's stored response. Other unique
// violations on constraints with domain meaning become their application error.
func wrapDBErr(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return wrapped
	}

	switch pgErr.Code {
	case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
		return apperror.ErrContention(wrapped)
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintAccountOwner:
			return apperror.ErrAccountAlreadyExists()
		case constraintUserEmail:
			return apperror.ErrEmailExists()
		case constraintIdempotency:
			return apperror.ErrContention(wrapped)
		}
	}
	return wrapped
}
