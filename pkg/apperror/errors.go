package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how callers are expected to react.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindInvariantViolation Kind = "INVARIANT_VIOLATION"
	KindNotFound           Kind = "NOT_FOUND"
	KindSuspended          Kind = "SUSPENDED"
	KindContention         Kind = "CONTENTION"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindInternal           Kind = "INTERNAL"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"-"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on error code so errors.Is works against the constructors below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, kind Kind, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, kind Kind, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether the operation may be safely retried.
func IsRetryable(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == KindContention
}

// ---- Ledger (LED) ----

func ErrValidation(message string) *AppError {
	return New("LED_000", KindValidation, message, http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("LED_001", KindInvariantViolation, "Insufficient funds", http.StatusUnprocessableEntity)
}

func ErrNonZeroBalance() *AppError {
	return New("LED_002", KindInvariantViolation, "Cannot delete account with non-zero balance", http.StatusConflict)
}

func ErrRecipientNotFound() *AppError {
	return New("LED_003", KindNotFound, "Recipient account not found", http.StatusNotFound)
}

func ErrAccountNotFound() *AppError {
	return New("LED_004", KindNotFound, "Bank account does not exist or does not belong to you", http.StatusNotFound)
}

func ErrAccountSuspended() *AppError {
	return New("LED_005", KindSuspended, "Account is suspended. No operations allowed.", http.StatusForbidden)
}

func ErrInvalidTransactionType(t string) *AppError {
	return New("LED_006", KindValidation, fmt.Sprintf("Invalid transaction type %q", t), http.StatusBadRequest)
}

// ErrUnsupportedCurrency is a hard failure: a currency outside the rate table
// reaching the converter means configuration and data disagree.
func ErrUnsupportedCurrency(currency string) *AppError {
	return New("LED_007", KindInternal, fmt.Sprintf("Unsupported currency %q", currency), http.StatusInternalServerError)
}

func ErrAccountAlreadyExists() *AppError {
	return New("LED_008", KindInvariantViolation, "User already has a bank account", http.StatusConflict)
}

func ErrSameAccountTransfer() *AppError {
	return New("LED_009", KindValidation, "Cannot transfer to the same account", http.StatusBadRequest)
}

// ---- Loans (LOAN) ----

func ErrInactiveAccount() *AppError {
	return New("LOAN_001", KindSuspended, "Cannot create a loan for an inactive account", http.StatusForbidden)
}

func ErrInvalidDateRange() *AppError {
	return New("LOAN_002", KindValidation, "End date must be after the start date", http.StatusBadRequest)
}

func ErrLoanExceedsMaxLimit(max string) *AppError {
	return New("LOAN_003", KindInvariantViolation, fmt.Sprintf("Loan amount cannot exceed %s", max), http.StatusUnprocessableEntity)
}

func ErrInsufficientTreasuryFunds() *AppError {
	return New("LOAN_004", KindInvariantViolation, "The bank does not have sufficient funds to grant this loan", http.StatusUnprocessableEntity)
}

func ErrInvalidTerm() *AppError {
	return New("LOAN_005", KindValidation, "Loan term must be at least one month", http.StatusBadRequest)
}

func ErrLoanNotFound() *AppError {
	return New("LOAN_006", KindNotFound, "Loan not found", http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", KindUnauthorized, "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", KindInvariantViolation, "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", KindUnauthorized, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrUserDisabled() *AppError {
	return New("AUTH_004", KindSuspended, "User is disabled", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", KindContention, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", KindInternal, "Internal server error", http.StatusInternalServerError, err)
}

// ErrContention marks a transient lock or serialization failure. No partial
// write is ever visible when it is returned.
func ErrContention(err error) *AppError {
	return Wrap("SYS_002", KindContention, "Resource busy, retry later", http.StatusServiceUnavailable, err)
}
