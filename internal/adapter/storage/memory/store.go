package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errLockTimeout = errors.New("memory store: lock timeout")

// Store is an in-process replacement for the Postgres schema. Write
// transactions are serialized: Begin takes the single writer slot and the
// transaction holds it until Commit or Rollback. Reads outside a transaction
// only ever see committed state.
type Store struct {
	mu          sync.RWMutex
	writer      chan struct{}
	lockTimeout time.Duration

	users        map[uuid.UUID]domain.User
	accounts     map[uuid.UUID]domain.Account
	transactions []domain.Transaction
	loans        []domain.Loan
	treasury     *domain.Treasury
	idempotency  map[string]domain.IdempotencyLog
	audit        []domain.AuditLog
}

// NewStore creates an empty store. lockTimeout bounds how long Begin waits
// for the writer slot; zero waits until ctx is done.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		writer:      make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		users:       make(map[uuid.UUID]domain.User),
		accounts:    make(map[uuid.UUID]domain.Account),
		idempotency: make(map[string]domain.IdempotencyLog),
	}
}

// Begin implements ports.DBTransactor.
func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		timer := time.NewTimer(s.lockTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, apperror.ErrContention(errLockTimeout)
	}

	return newTx(s), nil
}

func (s *Store) release() {
	<-s.writer
}

// apply publishes a finished transaction's staged writes.
func (s *Store) apply(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range tx.accounts {
		if a == nil {
			delete(s.accounts, id)
			continue
		}
		s.accounts[id] = *a
	}
	if tx.treasury != nil {
		t := *tx.treasury
		s.treasury = &t
	}
	for _, op := range tx.ops {
		op(s)
	}
}

// account reads a committed account. Callers hold mu.
func (s *Store) account(id uuid.UUID) *domain.Account {
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	return &a
}

func (s *Store) findAccount(match func(domain.Account) bool) *domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if match(a) {
			a := a
			return &a
		}
	}
	return nil
}
