package memory

import (
	"context"
	"fmt"

	"banking-ledger/internal/core/domain"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository on a Store.
type IdempotencyRepo struct {
	store *Store
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(store *Store) *IdempotencyRepo {
	return &IdempotencyRepo{store: store}
}

// Create stages an idempotency log. Keys are unique.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	_, exists := r.store.idempotency[log.Key]
	r.store.mu.RUnlock()
	if exists {
		return apperror.ErrContention(fmt.Errorf("insert idempotency log: duplicate key %q", log.Key))
	}

	entry := *log
	entry.ResponseJSON = append([]byte(nil), log.ResponseJSON...)
	mt.stage(func(s *Store) { s.idempotency[entry.Key] = entry })
	return nil
}

// Get fetches a committed idempotency log by key.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entry, ok := r.store.idempotency[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// DeleteByAccount stages removal of the account's idempotency logs.
func (r *IdempotencyRepo) DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	mt, err := asTx(tx)
	if err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	var n int64
	for _, entry := range r.store.idempotency {
		if entry.AccountID == accountID {
			n++
		}
	}
	r.store.mu.RUnlock()

	mt.stage(func(s *Store) {
		for key, entry := range s.idempotency {
			if entry.AccountID == accountID {
				delete(s.idempotency, key)
			}
		}
	})
	return n, nil
}
