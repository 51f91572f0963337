package memory

import (
	"context"
	"fmt"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepo implements ports.AccountRepository on a Store.
type AccountRepo struct {
	store *Store
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(store *Store) *AccountRepo {
	return &AccountRepo{store: store}
}

// Create stages a new account. Owner and account number are unique.
func (r *AccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Account) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}

	if mt.account(a.ID) != nil {
		return fmt.Errorf("insert account: duplicate id %s", a.ID)
	}
	clash := func(other domain.Account) error {
		if other.OwnerID == a.OwnerID {
			return apperror.ErrAccountAlreadyExists()
		}
		if other.AccountNumber == a.AccountNumber {
			return fmt.Errorf("insert account: account number %s taken", a.AccountNumber)
		}
		return nil
	}
	for id, staged := range mt.accounts {
		if staged == nil || id == a.ID {
			continue
		}
		if err := clash(*staged); err != nil {
			return err
		}
	}
	r.store.mu.RLock()
	for id, committed := range r.store.accounts {
		if _, staged := mt.accounts[id]; staged {
			continue
		}
		if err := clash(committed); err != nil {
			r.store.mu.RUnlock()
			return err
		}
	}
	r.store.mu.RUnlock()

	cp := *a
	mt.accounts[a.ID] = &cp
	return nil
}

// GetByID fetches a committed account by its UUID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.account(id), nil
}

// GetByOwnerID fetches the account owned by a user.
func (r *AccountRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Account, error) {
	return r.store.findAccount(func(a domain.Account) bool { return a.OwnerID == ownerID }), nil
}

// GetByNumber fetches an account by its account number.
func (r *AccountRepo) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return r.store.findAccount(func(a domain.Account) bool { return a.AccountNumber == accountNumber }), nil
}

// ExistsByNumber reports whether an account number is already taken.
func (r *AccountRepo) ExistsByNumber(ctx context.Context, accountNumber string) (bool, error) {
	a, err := r.GetByNumber(ctx, accountNumber)
	return a != nil, err
}

// GetByIDForUpdate reads the account inside tx. The transaction already owns
// the writer slot, so no further locking is needed.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	mt, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return mt.account(id), nil
}

// UpdateBalance stages a new balance.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	return r.update(tx, id, func(a *domain.Account) { a.Balance = balance })
}

// SetActive stages an activation status change.
func (r *AccountRepo) SetActive(ctx context.Context, tx pgx.Tx, id uuid.UUID, active bool) error {
	return r.update(tx, id, func(a *domain.Account) { a.IsActive = active })
}

// Delete stages removal of the account.
func (r *AccountRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	if mt.account(id) == nil {
		return fmt.Errorf("account not found: %s", id)
	}
	mt.accounts[id] = nil
	return nil
}

func (r *AccountRepo) update(tx pgx.Tx, id uuid.UUID, fn func(*domain.Account)) error {
	mt, err := asTx(tx)
	if err != nil {
		return err
	}
	a := mt.account(id)
	if a == nil {
		return fmt.Errorf("account not found: %s", id)
	}
	fn(a)
	a.UpdatedAt = time.Now().UTC()
	mt.accounts[id] = a
	return nil
}
