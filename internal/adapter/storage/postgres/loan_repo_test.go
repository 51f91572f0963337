package postgres

import (
	"context"
	"testing"
	"time"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoan(accountID uuid.UUID) *domain.Loan {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return &domain.Loan{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       decimal.RequireFromString("10000.00"),
		InterestRate: decimal.RequireFromString("5.00"),
		StartDate:    start,
		EndDate:      start.AddDate(1, 0, 0),
		IsActive:     true,
		Currency:     domain.CurrencyUSD,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func loanRows(loans ...*domain.Loan) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id", "account_id", "amount", "interest_rate", "start_date", "end_date", "is_active", "currency", "created_at"})
	for _, l := range loans {
		rows.AddRow(l.ID, l.AccountID, l.Amount, l.InterestRate, l.StartDate, l.EndDate, l.IsActive, l.Currency, l.CreatedAt)
	}
	return rows
}

func TestLoanRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO loans").
		WithArgs(l.ID, l.AccountID, l.Amount, l.InterestRate, l.StartDate, l.EndDate, l.IsActive, l.Currency, l.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM loans WHERE id").
		WithArgs(l.ID).
		WillReturnRows(loanRows(l))

	result, err := repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 12, result.TermMonths())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_ListByAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	accountID := uuid.New()
	first, second := newTestLoan(accountID), newTestLoan(accountID)

	mock.ExpectQuery("SELECT .+ FROM loans WHERE account_id .+ ORDER BY created_at").
		WithArgs(accountID).
		WillReturnRows(loanRows(first, second))

	loans, err := repo.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, first.ID, loans[0].ID)
	assert.Equal(t, second.ID, loans[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_DeleteByAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM loans").
		WithArgs(accountID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	n, err := repo.DeleteByAccount(context.Background(), tx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
