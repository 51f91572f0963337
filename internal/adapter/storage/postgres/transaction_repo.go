package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, account_id, amount, transaction_type, direction, fee, currency,
		counterparty_account_id, created_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.AccountID, t.Amount, t.TransactionType, t.Direction,
		t.Fee, t.Currency, t.CounterpartyAccountID, t.CreatedAt,
	)
	if err != nil {
		return wrapDBErr("insert transaction", err)
	}
	return nil
}

// GetByID fetches a ledger entry by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// DeleteByAccount removes every entry of an account within a transaction.
func (r *TransactionRepo) DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, wrapDBErr("delete transactions", err)
	}
	return tag.RowsAffected(), nil
}

// List fetches an account's entries with filtering and pagination, newest first.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("account_id = $%d", argIdx))
	args = append(args, params.AccountID)
	argIdx++

	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, wrapDBErr("count transactions", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, wrapDBErr("list transactions", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, params.PageSize)
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.AccountID, &t.Amount, &t.TransactionType, &t.Direction,
			&t.Fee, &t.Currency, &t.CounterpartyAccountID, &t.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetStats aggregates an account's entries per type and direction. It
// returns nil when the account does not exist.
func (r *TransactionRepo) GetStats(ctx context.Context, accountID uuid.UUID, periodStart *time.Time) (*domain.TransactionStats, error) {
	var currency domain.Currency
	err := r.pool.QueryRow(ctx, `SELECT currency FROM accounts WHERE id = $1`, accountID).Scan(&currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDBErr("get stats account", err)
	}

	args := []any{accountID}
	condition := "account_id = $1"
	if periodStart != nil {
		condition += " AND created_at >= $2"
		args = append(args, *periodStart)
	}

	query := fmt.Sprintf(`SELECT transaction_type, direction, COUNT(*),
		COALESCE(SUM(amount), 0), COALESCE(SUM(fee), 0)
		FROM transactions WHERE %s
		GROUP BY transaction_type, direction`, condition)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapDBErr("get transaction stats", err)
	}
	defer rows.Close()

	stats := domain.NewTransactionStats(accountID, currency)
	for rows.Next() {
		var (
			txType    domain.TransactionType
			direction domain.Direction
			count     int64
			sum, fees decimal.Decimal
		)
		if err := rows.Scan(&txType, &direction, &count, &sum, &fees); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.Add(txType, direction, count, sum, fees)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *TransactionRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.AccountID, &t.Amount, &t.TransactionType, &t.Direction,
		&t.Fee, &t.Currency, &t.CounterpartyAccountID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDBErr("scan transaction", err)
	}
	return t, nil
}
