package service

import (
	"bytes"
	"context"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	accounts   ports.AccountRepository
	guard      idempotencyGuard
	transactor ports.DBTransactor
	txLog      *TransactionLog
	converter  *CurrencyConverter
	publisher  ports.EventPublisher
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	accounts ports.AccountRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	txLog *TransactionLog,
	converter *CurrencyConverter,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		accounts:   accounts,
		guard:      idempotencyGuard{repo: idempRepo, cache: idempCache, log: log},
		transactor: transactor,
		txLog:      txLog,
		converter:  converter,
		publisher:  publisher,
		log:        log,
	}
}

// Transfer debits the source by amount and credits the destination with the
// converted amount. Both balance changes and both TRANSFER entries commit
// together or not at all.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.SourceAccountID, domain.TransactionTypeTransfer, req.IdempotencyKey)
	}
	cached, err := s.guard.lookup(ctx, idempKey)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var result ports.TransferResult
		if err := replay(cached, &result); err != nil {
			return nil, err
		}
		return &result, nil
	}

	// Resolve the destination without locking; the lock comes below in ID order.
	dest, err := s.accounts.GetByNumber(ctx, req.DestinationAccountNumber)
	if err != nil {
		return nil, wrapErr("resolve recipient", err)
	}
	if dest == nil {
		return nil, apperror.ErrRecipientNotFound()
	}
	if dest.ID == req.SourceAccountID {
		return nil, apperror.ErrSameAccountTransfer()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	src, dst, err := s.lockPair(ctx, dbTx, req.SourceAccountID, dest.ID)
	if err != nil {
		return nil, err
	}

	if !src.IsActive {
		return nil, apperror.ErrAccountSuspended()
	}
	if !src.CanTransfer(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	credited, err := s.converter.Convert(req.Amount, src.Currency, dst.Currency)
	if err != nil {
		return nil, err
	}

	srcBalance := src.Balance.Sub(req.Amount)
	dstBalance := dst.Balance.Add(credited)

	if err := s.accounts.UpdateBalance(ctx, dbTx, src.ID, srcBalance); err != nil {
		return nil, wrapErr("debit source", err)
	}
	if err := s.accounts.UpdateBalance(ctx, dbTx, dst.ID, dstBalance); err != nil {
		return nil, wrapErr("credit destination", err)
	}

	debit, err := s.txLog.Record(ctx, dbTx, src, req.Amount, domain.TransactionTypeTransfer,
		WithDirection(domain.DirectionDebit), WithCounterparty(dst.ID))
	if err != nil {
		return nil, err
	}
	credit, err := s.txLog.Record(ctx, dbTx, dst, credited, domain.TransactionTypeTransfer,
		WithDirection(domain.DirectionCredit), WithCounterparty(src.ID))
	if err != nil {
		return nil, err
	}

	result := &ports.TransferResult{
		Debit:          debit,
		Credit:         credit,
		SourceBalance:  srcBalance,
		CreditedAmount: credited,
	}

	respJSON, err := s.guard.save(ctx, dbTx, idempKey, src.ID, debit.ID, result)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, wrapErr("commit tx", err)
	}

	s.guard.remember(ctx, idempKey, respJSON)

	ev := domain.NewLedgerEvent(domain.EventTransferred, src.ID)
	ev.Amount = &debit.Amount
	ev.Currency = src.Currency
	ev.Balance = &result.SourceBalance
	ev.CounterpartyID = &dst.ID
	ev.CreditedAmount = &credit.Amount
	ev.CounterpartyCurrency = dst.Currency
	publish(ctx, s.publisher, s.log, ev)

	s.log.Info().
		Str("debit_tx_id", debit.ID.String()).
		Str("credit_tx_id", credit.ID.String()).
		Str("source_id", src.ID.String()).
		Str("destination_id", dst.ID.String()).
		Str("amount", req.Amount.StringFixed(domain.MoneyPlaces)).
		Str("credited", credited.StringFixed(domain.MoneyPlaces)).
		Msg("transfer processed successfully")

	return result, nil
}

// lockPair row-locks both accounts in ascending ID order so two opposing
// transfers cannot deadlock each other.
func (s *TransferServiceImpl) lockPair(ctx context.Context, tx pgx.Tx, srcID, dstID uuid.UUID) (*domain.Account, *domain.Account, error) {
	first, second := srcID, dstID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]*domain.Account, 2)
	for _, id := range []uuid.UUID{first, second} {
		a, err := s.accounts.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, nil, wrapErr("lock account", err)
		}
		locked[id] = a
	}

	src, dst := locked[srcID], locked[dstID]
	if src == nil {
		return nil, nil, apperror.ErrAccountNotFound()
	}
	if dst == nil {
		return nil, nil, apperror.ErrRecipientNotFound()
	}
	return src, dst, nil
}
