package ports

import (
	"context"
	"time"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventPublisher ships committed ledger events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.LedgerEvent) error
	Close() error
}

// --- Service Ports (Business Logic) ---

// LedgerService owns single-account balance mutation and account lifecycle.
type LedgerService interface {
	OpenAccount(ctx context.Context, ownerID uuid.UUID, currency domain.Currency) (*domain.Account, error)
	GetAccount(ctx context.Context, ownerID uuid.UUID) (*domain.Account, error)
	GetBalance(ctx context.Context, accountID uuid.UUID) (*BalanceView, error)
	Deposit(ctx context.Context, req MoneyRequest) (*LedgerResult, error)
	Withdraw(ctx context.Context, req MoneyRequest) (*LedgerResult, error)
	SetActive(ctx context.Context, accountID uuid.UUID, action domain.AccountStatusAction) (*domain.Account, error)
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error
}

// MoneyRequest holds validated input for a deposit or withdrawal.
type MoneyRequest struct {
	AccountID      uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string // optional
}

// LedgerResult is the outcome of a single-account money movement.
type LedgerResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
	Currency    domain.Currency     `json:"currency"`
}

// BalanceView is a side-effect-free balance snapshot.
type BalanceView struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      domain.Currency `json:"currency"`
}

// TransferService moves money between two accounts atomically.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	SourceAccountID          uuid.UUID
	DestinationAccountNumber string
	Amount                   decimal.Decimal
	IdempotencyKey           string // optional
}

// TransferResult carries both ledger entries of a committed transfer.
type TransferResult struct {
	Debit          *domain.Transaction `json:"debit"`
	Credit         *domain.Transaction `json:"credit"`
	SourceBalance  decimal.Decimal     `json:"source_balance"`
	CreditedAmount decimal.Decimal     `json:"credited_amount"`
}

// LoanService originates loans and computes repayment schedules.
type LoanService interface {
	OriginateLoan(ctx context.Context, req LoanRequest) (*domain.LoanRepayment, error)
	ListLoans(ctx context.Context, accountID uuid.UUID) ([]domain.LoanRepayment, error)
}

// LoanRequest holds validated input for loan origination.
type LoanRequest struct {
	AccountID    uuid.UUID
	Amount       decimal.Decimal
	InterestRate decimal.Decimal
	EndDate      time.Time
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// ReportingService defines transaction history and statistics.
type ReportingService interface {
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, accountID uuid.UUID, period string) (*domain.TransactionStats, error)
}

// AuditService records audit trail entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
