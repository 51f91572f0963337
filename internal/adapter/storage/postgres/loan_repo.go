package postgres

import (
	"context"
	"errors"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, account_id, amount, interest_rate, start_date, end_date, is_active, currency, created_at`

// LoanRepo implements ports.LoanRepository.
type LoanRepo struct {
	pool Pool
}

// NewLoanRepo creates a new LoanRepo.
func NewLoanRepo(pool Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

// Create inserts a loan within a database transaction.
func (r *LoanRepo) Create(ctx context.Context, tx pgx.Tx, l *domain.Loan) error {
	query := `INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		l.ID, l.AccountID, l.Amount, l.InterestRate,
		l.StartDate, l.EndDate, l.IsActive, l.Currency, l.CreatedAt,
	)
	if err != nil {
		return wrapDBErr("insert loan", err)
	}
	return nil
}

// GetByID fetches a loan by UUID.
func (r *LoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	l := &domain.Loan{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.AccountID, &l.Amount, &l.InterestRate,
		&l.StartDate, &l.EndDate, &l.IsActive, &l.Currency, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDBErr("get loan by id", err)
	}
	return l, nil
}

// ListByAccount returns an account's loans, oldest first.
func (r *LoanRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, wrapDBErr("list loans", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		l := domain.Loan{}
		if err := rows.Scan(
			&l.ID, &l.AccountID, &l.Amount, &l.InterestRate,
			&l.StartDate, &l.EndDate, &l.IsActive, &l.Currency, &l.CreatedAt,
		); err != nil {
			return nil, wrapDBErr("scan loan row", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr("iterate loan rows", err)
	}
	return loans, nil
}

// DeleteByAccount removes every loan of an account within a transaction.
func (r *LoanRepo) DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM loans WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, wrapDBErr("delete loans", err)
	}
	return tag.RowsAffected(), nil
}
