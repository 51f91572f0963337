package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxNumberAttempts bounds the search for an unused account number.
const maxNumberAttempts = 10

// LedgerDeps holds the collaborators of LedgerServiceImpl.
type LedgerDeps struct {
	Accounts       ports.AccountRepository
	Transactions   ports.TransactionRepository
	Loans          ports.LoanRepository
	Idempotency    ports.IdempotencyRepository
	Cache          ports.IdempotencyCache // nil = DB-only idempotency
	Transactor     ports.DBTransactor
	Log            *TransactionLog
	Converter      *CurrencyConverter
	Publisher      ports.EventPublisher // nil = events disabled
	OverdraftFloor decimal.Decimal
	Logger         zerolog.Logger
}

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	accounts   ports.AccountRepository
	txRepo     ports.TransactionRepository
	loanRepo   ports.LoanRepository
	idempRepo  ports.IdempotencyRepository
	guard      idempotencyGuard
	transactor ports.DBTransactor
	txLog      *TransactionLog
	converter  *CurrencyConverter
	publisher  ports.EventPublisher
	floor      decimal.Decimal
	newNumber  func() (string, error)
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(deps LedgerDeps) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accounts:   deps.Accounts,
		txRepo:     deps.Transactions,
		loanRepo:   deps.Loans,
		idempRepo:  deps.Idempotency,
		guard:      idempotencyGuard{repo: deps.Idempotency, cache: deps.Cache, log: deps.Logger},
		transactor: deps.Transactor,
		txLog:      deps.Log,
		converter:  deps.Converter,
		publisher:  deps.Publisher,
		floor:      deps.OverdraftFloor,
		newNumber:  generateAccountNumber,
		log:        deps.Logger,
	}
}

// OpenAccount creates the owner's single account, empty and active.
func (s *LedgerServiceImpl) OpenAccount(ctx context.Context, ownerID uuid.UUID, currency domain.Currency) (*domain.Account, error) {
	if !s.converter.Supports(currency) {
		return nil, apperror.ErrValidation(fmt.Sprintf("Unsupported currency %q", currency))
	}

	existing, err := s.accounts.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, wrapErr("check existing account", err)
	}
	if existing != nil {
		return nil, apperror.ErrAccountAlreadyExists()
	}

	number, err := s.uniqueAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		AccountNumber: number,
		Balance:       decimal.Zero,
		Currency:      currency,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.accounts.Create(ctx, dbTx, account); err != nil {
		return nil, wrapErr("create account", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, wrapErr("commit tx", err)
	}

	ev := domain.NewLedgerEvent(domain.EventAccountOpened, account.ID)
	ev.Currency = account.Currency
	publish(ctx, s.publisher, s.log, ev)

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("currency", string(currency)).
		Msg("account opened")

	return account, nil
}

func (s *LedgerServiceImpl) uniqueAccountNumber(ctx context.Context) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number, err := s.newNumber()
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("generate account number: %w", err))
		}
		taken, err := s.accounts.ExistsByNumber(ctx, number)
		if err != nil {
			return "", wrapErr("check account number", err)
		}
		if !taken {
			return number, nil
		}
	}
	return "", apperror.InternalError(fmt.Errorf("no free account number after %d attempts", maxNumberAttempts))
}

// generateAccountNumber draws a uniform 10-digit number in [1000000000, 9999999999].
func generateAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return "", err
	}
	return n.Add(n, big.NewInt(1_000_000_000)).String(), nil
}

// GetAccount returns the account owned by ownerID.
func (s *LedgerServiceImpl) GetAccount(ctx context.Context, ownerID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, wrapErr("get account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

// GetBalance reads the current balance without side effects.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, accountID uuid.UUID) (*ports.BalanceView, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, wrapErr("get account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return &ports.BalanceView{
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
		Currency:      account.Currency,
	}, nil
}

// Deposit credits amount to the account. There is no upper bound.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.MoneyRequest) (*ports.LedgerResult, error) {
	return s.move(ctx, req, domain.TransactionTypeDeposit, func(a *domain.Account) (decimal.Decimal, error) {
		return a.Balance.Add(req.Amount), nil
	})
}

// Withdraw debits amount, allowing the balance down to the overdraft floor.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.MoneyRequest) (*ports.LedgerResult, error) {
	return s.move(ctx, req, domain.TransactionTypeWithdraw, func(a *domain.Account) (decimal.Decimal, error) {
		if !a.CanWithdraw(req.Amount, s.floor) {
			return decimal.Zero, apperror.ErrInsufficientFunds()
		}
		return a.Balance.Sub(req.Amount), nil
	})
}

// move runs one single-account balance change and its ledger entry as a unit.
func (s *LedgerServiceImpl) move(
	ctx context.Context,
	req ports.MoneyRequest,
	txType domain.TransactionType,
	apply func(*domain.Account) (decimal.Decimal, error),
) (*ports.LedgerResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.AccountID, txType, req.IdempotencyKey)
	}
	cached, err := s.guard.lookup(ctx, idempKey)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var result ports.LedgerResult
		if err := replay(cached, &result); err != nil {
			return nil, err
		}
		return &result, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accounts.GetByIDForUpdate(ctx, dbTx, req.AccountID)
	if err != nil {
		return nil, wrapErr("lock account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	newBalance, err := apply(account)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateBalance(ctx, dbTx, account.ID, newBalance); err != nil {
		return nil, wrapErr("update balance", err)
	}

	entry, err := s.txLog.Record(ctx, dbTx, account, req.Amount, txType)
	if err != nil {
		return nil, err
	}

	result := &ports.LedgerResult{
		Transaction: entry,
		Balance:     newBalance,
		Currency:    account.Currency,
	}

	respJSON, err := s.guard.save(ctx, dbTx, idempKey, account.ID, entry.ID, result)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, wrapErr("commit tx", err)
	}

	s.guard.remember(ctx, idempKey, respJSON)

	evType := domain.EventDeposited
	if txType == domain.TransactionTypeWithdraw {
		evType = domain.EventWithdrawn
	}
	ev := domain.NewLedgerEvent(evType, account.ID)
	ev.Amount = &entry.Amount
	ev.Currency = account.Currency
	ev.Balance = &result.Balance
	publish(ctx, s.publisher, s.log, ev)

	s.log.Info().
		Str("tx_id", entry.ID.String()).
		Str("account_id", account.ID.String()).
		Str("type", string(txType)).
		Str("amount", req.Amount.StringFixed(domain.MoneyPlaces)).
		Msg("ledger entry processed successfully")

	return result, nil
}

// SetActive activates or suspends the account.
func (s *LedgerServiceImpl) SetActive(ctx context.Context, accountID uuid.UUID, action domain.AccountStatusAction) (*domain.Account, error) {
	var active bool
	switch action {
	case domain.AccountActionActivate:
		active = true
	case domain.AccountActionSuspend:
		active = false
	default:
		return nil, apperror.ErrValidation(`Action must be "activate" or "suspend"`)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accounts.GetByIDForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return nil, wrapErr("lock account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	if account.IsActive != active {
		if err := s.accounts.SetActive(ctx, dbTx, account.ID, active); err != nil {
			return nil, wrapErr("set account status", err)
		}
		account.IsActive = active
		account.UpdatedAt = time.Now().UTC()
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, wrapErr("commit tx", err)
	}

	ev := domain.NewLedgerEvent(domain.EventAccountStatusChanged, account.ID)
	ev.Active = &active
	publish(ctx, s.publisher, s.log, ev)

	s.log.Info().
		Str("account_id", account.ID.String()).
		Bool("active", active).
		Msg("account status updated")

	return account, nil
}

// DeleteAccount removes an account with a zero balance together with its
// transactions, loans and idempotency logs, all in one DB transaction.
func (s *LedgerServiceImpl) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return wrapErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accounts.GetByIDForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return wrapErr("lock account", err)
	}
	if account == nil {
		return apperror.ErrAccountNotFound()
	}
	if !account.IsEmpty() {
		return apperror.ErrNonZeroBalance()
	}

	removed, err := s.cascade(ctx, dbTx, account.ID)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, dbTx, account.ID); err != nil {
		return wrapErr("delete account", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return wrapErr("commit tx", err)
	}

	publish(ctx, s.publisher, s.log, domain.NewLedgerEvent(domain.EventAccountClosed, account.ID))

	s.log.Info().
		Str("account_id", account.ID.String()).
		Int64("transactions_removed", removed[0]).
		Int64("loans_removed", removed[1]).
		Msg("account deleted")

	return nil
}

// cascade removes everything that references the account.
func (s *LedgerServiceImpl) cascade(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) ([2]int64, error) {
	var removed [2]int64

	n, err := s.txRepo.DeleteByAccount(ctx, tx, accountID)
	if err != nil {
		return removed, wrapErr("delete transactions", err)
	}
	removed[0] = n

	n, err = s.loanRepo.DeleteByAccount(ctx, tx, accountID)
	if err != nil {
		return removed, wrapErr("delete loans", err)
	}
	removed[1] = n

	if _, err := s.idempRepo.DeleteByAccount(ctx, tx, accountID); err != nil {
		return removed, wrapErr("delete idempotency logs", err)
	}
	return removed, nil
}
