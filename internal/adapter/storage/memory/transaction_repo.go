package memory

import (
	"bytes"
	"context"
	"sort"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository on a Store.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

// Create stages a ledger entry.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	entry := *t
	mt.stage(func(s *Store) { s.transactions = append(s.transactions, entry) })
	return nil
}

// GetByID fetches a committed entry.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, t := range r.store.transactions {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

// DeleteByAccount stages removal of every entry of the account and returns
// how many committed entries that covers.
func (r *TransactionRepo) DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	mt, err := asTx(tx)
	if err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	var n int64
	for _, t := range r.store.transactions {
		if t.AccountID == accountID {
			n++
		}
	}
	r.store.mu.RUnlock()

	mt.stage(func(s *Store) {
		kept := s.transactions[:0]
		for _, t := range s.transactions {
			if t.AccountID != accountID {
				kept = append(kept, t)
			}
		}
		s.transactions = kept
	})
	return n, nil
}

// List returns a page of the account's entries, newest first, and the total
// number of matches.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.store.mu.RLock()
	var matched []domain.Transaction
	for _, t := range r.store.transactions {
		if t.AccountID != params.AccountID {
			continue
		}
		if params.Type != nil && t.TransactionType != *params.Type {
			continue
		}
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
			continue
		}
		matched = append(matched, t)
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})

	total := int64(len(matched))
	offset := (params.Page - 1) * params.PageSize
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := offset + params.PageSize
	if params.PageSize <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// GetStats folds the account's entries since periodStart (all time when nil).
// It returns nil when the account does not exist.
func (r *TransactionRepo) GetStats(ctx context.Context, accountID uuid.UUID, periodStart *time.Time) (*domain.TransactionStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account := r.store.account(accountID)
	if account == nil {
		return nil, nil
	}

	stats := domain.NewTransactionStats(accountID, account.Currency)
	for _, t := range r.store.transactions {
		if t.AccountID != accountID {
			continue
		}
		if periodStart != nil && t.CreatedAt.Before(*periodStart) {
			continue
		}
		stats.Add(t.TransactionType, t.Direction, 1, t.Amount, t.Fee)
	}
	return stats, nil
}
