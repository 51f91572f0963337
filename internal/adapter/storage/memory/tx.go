package memory

import (
	"context"
	"errors"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errSQLUnsupported = errors.New("memory store: raw SQL is not supported")

// memTx stages writes until Commit. accounts holds rows written in this
// transaction; a nil value marks a deleted row.
type memTx struct {
	store    *Store
	accounts map[uuid.UUID]*domain.Account
	treasury *domain.Treasury
	ops      []func(*Store)
	closed   bool
}

var _ pgx.Tx = (*memTx)(nil)

func newTx(s *Store) *memTx {
	return &memTx{
		store:    s,
		accounts: make(map[uuid.UUID]*domain.Account),
	}
}

// asTx unwraps a transaction handed back by a repository method.
func asTx(tx pgx.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok || mt == nil {
		return nil, errors.New("memory store: foreign transaction")
	}
	if mt.closed {
		return nil, pgx.ErrTxClosed
	}
	return mt, nil
}

// account returns the row as this transaction sees it.
func (t *memTx) account(id uuid.UUID) *domain.Account {
	if a, staged := t.accounts[id]; staged {
		if a == nil {
			return nil
		}
		cp := *a
		return &cp
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.account(id)
}

func (t *memTx) stage(op func(*Store)) {
	t.ops = append(t.ops, op)
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.store.apply(t)
	t.store.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.store.release()
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("memory store: nested transactions are not supported")
}

func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errSQLUnsupported
}

func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return errBatch{}
}

func (t *memTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errSQLUnsupported
}

func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errSQLUnsupported
}

func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errSQLUnsupported
}

func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{}
}

func (t *memTx) Conn() *pgx.Conn {
	return nil
}

type errRow struct{}

func (errRow) Scan(...any) error { return errSQLUnsupported }

type errBatch struct{}

func (errBatch) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, errSQLUnsupported }
func (errBatch) Query() (pgx.Rows, error)         { return nil, errSQLUnsupported }
func (errBatch) QueryRow() pgx.Row                { return errRow{} }
func (errBatch) Close() error                     { return nil }
