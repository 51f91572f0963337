package postgres

import (
	"context"
	"testing"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idempotencyColumns() []string {
	return []string{"key", "account_id", "transaction_id", "response_json", "created_at"}
}

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	accountID := uuid.New()
	log := &domain.IdempotencyLog{
		Key:           domain.BuildIdempotencyKey(accountID, domain.TransactionTypeDeposit, "req-001"),
		AccountID:     accountID,
		TransactionID: uuid.New(),
		ResponseJSON:  []byte(`{"balance":"150"}`),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(log.Key, log.AccountID, log.TransactionID, log.ResponseJSON, log.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Create_LostRaceIsRetryable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	accountID := uuid.New()
	log := &domain.IdempotencyLog{
		Key:           domain.BuildIdempotencyKey(accountID, domain.TransactionTypeWithdraw, "req-dup"),
		AccountID:     accountID,
		TransactionID: uuid.New(),
		ResponseJSON:  []byte(`{"balance":"50"}`),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_logs").
		WithArgs(log.Key, log.AccountID, log.TransactionID, log.ResponseJSON, log.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idempotency_logs_pkey"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, log)
	assert.True(t, apperror.HasCode(err, "SYS_002"))
	assert.True(t, apperror.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	accountID := uuid.New()
	txID := uuid.New()
	key := domain.BuildIdempotencyKey(accountID, domain.TransactionTypeTransfer, "req-002")
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs(key).
		WillReturnRows(pgxmock.NewRows(idempotencyColumns()).
			AddRow(key, accountID, txID, []byte(`{"source_balance":"800"}`), now))

	result, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, accountID, result.AccountID)
	assert.Equal(t, txID, result.TransactionID)
	assert.Equal(t, []byte(`{"source_balance":"800"}`), result.ResponseJSON)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM idempotency_logs WHERE key").
		WithArgs("nonexistent-key").
		WillReturnRows(pgxmock.NewRows(idempotencyColumns()))

	result, err := repo.Get(context.Background(), "nonexistent-key")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_DeleteByAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM idempotency_logs").
		WithArgs(accountID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	n, err := repo.DeleteByAccount(context.Background(), tx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
