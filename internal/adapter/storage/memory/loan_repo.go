package memory

import (
	"context"
	"sort"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoanRepo implements ports.LoanRepository on a Store.
type LoanRepo struct {
	store *Store
}

// NewLoanRepo creates a new LoanRepo.
func NewLoanRepo(store *Store) *LoanRepo {
	return &LoanRepo{store: store}
}

// Create stages a new loan.
func (r *LoanRepo) Create(ctx context.Context, tx pgx.Tx, l *domain.Loan) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	loan := *l
	mt.stage(func(s *Store) { s.loans = append(s.loans, loan) })
	return nil
}

// GetByID fetches a committed loan.
func (r *LoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, l := range r.store.loans {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, nil
}

// ListByAccount returns the account's loans, oldest first.
func (r *LoanRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Loan, error) {
	r.store.mu.RLock()
	var loans []domain.Loan
	for _, l := range r.store.loans {
		if l.AccountID == accountID {
			loans = append(loans, l)
		}
	}
	r.store.mu.RUnlock()

	sort.SliceStable(loans, func(i, j int) bool {
		return loans[i].CreatedAt.Before(loans[j].CreatedAt)
	})
	return loans, nil
}

// DeleteByAccount stages removal of the account's loans.
func (r *LoanRepo) DeleteByAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	mt, err := asTx(tx)
	if err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	var n int64
	for _, l := range r.store.loans {
		if l.AccountID == accountID {
			n++
		}
	}
	r.store.mu.RUnlock()

	mt.stage(func(s *Store) {
		kept := s.loans[:0]
		for _, l := range s.loans {
			if l.AccountID != accountID {
				kept = append(kept, l)
			}
		}
		s.loans = kept
	})
	return n, nil
}
