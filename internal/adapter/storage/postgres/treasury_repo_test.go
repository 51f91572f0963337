package postgres

import (
	"context"
	"testing"
	"time"

	"banking-ledger/internal/core/domain"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treasuryRow(balance string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "balance", "updated_at"}).
		AddRow(domain.TreasuryRowID, decimal.RequireFromString(balance), time.Now().UTC())
}

func TestTreasuryRepo_Ensure_KeepsExistingBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTreasuryRepo(mock)
	start := decimal.RequireFromString("10000000.00")

	mock.ExpectExec("INSERT INTO treasury .+ ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(domain.TreasuryRowID, start).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT id, balance, updated_at FROM treasury").
		WithArgs(domain.TreasuryRowID).
		WillReturnRows(treasuryRow("9940000.00"))

	tr, err := repo.Ensure(context.Background(), start)
	require.NoError(t, err)
	assert.Equal(t, "9940000.00", tr.Balance.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTreasuryRepo_GetForUpdateAndDebit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTreasuryRepo(mock)
	newBalance := decimal.RequireFromString("9990000.00")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, balance, updated_at FROM treasury WHERE id = \\$1 FOR UPDATE").
		WithArgs(domain.TreasuryRowID).
		WillReturnRows(treasuryRow("10000000.00"))
	mock.ExpectExec("UPDATE treasury SET balance").
		WithArgs(newBalance, domain.TreasuryRowID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	tr, err := repo.GetForUpdate(context.Background(), tx)
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, domain.TreasuryRowID, tr.ID)

	require.NoError(t, repo.UpdateBalance(context.Background(), tx, newBalance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTreasuryRepo_Get_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTreasuryRepo(mock)

	mock.ExpectQuery("SELECT id, balance, updated_at FROM treasury").
		WithArgs(domain.TreasuryRowID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "balance", "updated_at"}))

	tr, err := repo.Get(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, tr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
