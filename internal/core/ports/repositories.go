package ports

import (
	"context"
	"time"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx run inside a transaction; the ForUpdate variants
// hold a row lock until that transaction ends.
type AccountRepository interface {
	Create(ctx context.Context, tx pgx.Tx, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	ExistsByNumber(ctx context.Context, accountNumber string) (bool, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
	SetActive(ctx context.Context, tx pgx.Tx, id uuid.UUID, active bool) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// TransactionRepository defines persistence for ledger entries. There is no
// update path; DeleteByAccount exists only for the account-deletion cascade.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, accountID uuid.UUID, periodStart *time.Time) (*domain.TransactionStats, error)
	DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	AccountID uuid.UUID
	Type      *domain.TransactionType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// LoanRepository defines persistence operations for loans.
type LoanRepository interface {
	Create(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Loan, error)
	DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error)
}

// TreasuryRepository persists the single treasury row.
type TreasuryRepository interface {
	// Ensure creates the row with startingBalance if it does not exist yet.
	Ensure(ctx context.Context, startingBalance decimal.Decimal) (*domain.Treasury, error)
	Get(ctx context.Context) (*domain.Treasury, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Treasury, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, balance decimal.Decimal) error
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
	DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
