package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"banking-ledger/internal/adapter/storage/memory"
	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bank wires the real services onto one in-memory store.
type bank struct {
	store     *memory.Store
	ledger    *LedgerServiceImpl
	transfers *TransferServiceImpl
	loans     *LoanServiceImpl
	treasury  *BankTreasury
	reporting ports.ReportingService
}

func newBank(t *testing.T, treasuryBalance string) *bank {
	t.Helper()
	ctx := context.Background()
	log := newTestLogger()

	store := memory.NewStore(10 * time.Second)
	accounts := memory.NewAccountRepo(store)
	txRepo := memory.NewTransactionRepo(store)
	loanRepo := memory.NewLoanRepo(store)
	idemRepo := memory.NewIdempotencyRepo(store)
	converter := newTestConverter()
	txLog := NewTransactionLog(txRepo, dec("0.01"))

	treasury, err := NewBankTreasury(ctx, memory.NewTreasuryRepo(store), dec(treasuryBalance), dec("50000.00"), log)
	require.NoError(t, err)

	return &bank{
		store: store,
		ledger: NewLedgerService(LedgerDeps{
			Accounts:       accounts,
			Transactions:   txRepo,
			Loans:          loanRepo,
			Idempotency:    idemRepo,
			Transactor:     store,
			Log:            txLog,
			Converter:      converter,
			OverdraftFloor: dec("-100.00"),
			Logger:         log,
		}),
		transfers: NewTransferService(accounts, idemRepo, nil, store, txLog, converter, nil, log),
		loans:     NewLoanService(accounts, loanRepo, treasury, store, nil, log),
		treasury:  treasury,
		reporting: NewReportingService(txRepo),
	}
}

func (b *bank) open(t *testing.T, currency domain.Currency, deposit string) *domain.Account {
	t.Helper()
	ctx := context.Background()
	a, err := b.ledger.OpenAccount(ctx, uuid.New(), currency)
	require.NoError(t, err)
	if deposit != "" {
		_, err = b.ledger.Deposit(ctx, ports.MoneyRequest{AccountID: a.ID, Amount: dec(deposit)})
		require.NoError(t, err)
	}
	return a
}

func (b *bank) balance(t *testing.T, id uuid.UUID) string {
	t.Helper()
	view, err := b.ledger.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return view.Balance.StringFixed(2)
}

func (b *bank) entries(t *testing.T, id uuid.UUID) []domain.Transaction {
	t.Helper()
	list, _, err := b.reporting.ListTransactions(context.Background(), ports.TransactionListParams{
		AccountID: id, Page: 1, PageSize: 100,
	})
	require.NoError(t, err)
	return list
}

func TestMemoryLedger_ConcurrentWithdrawalsStopAtFloor(t *testing.T) {
	b := newBank(t, "10000000.00")
	a := b.open(t, domain.CurrencyNIS, "50.00")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.ledger.Withdraw(context.Background(), ports.MoneyRequest{AccountID: a.ID, Amount: dec("10.00")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if apperror.HasCode(err, "LED_001") {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 15, succeeded)
	assert.Equal(t, 5, rejected)
	assert.Equal(t, "-100.00", b.balance(t, a.ID))
	assert.Len(t, b.entries(t, a.ID), 16)
}

func TestMemoryLedger_ConcurrentTransfersConserveMoney(t *testing.T) {
	b := newBank(t, "10000000.00")
	x := b.open(t, domain.CurrencyNIS, "1000.00")
	y := b.open(t, domain.CurrencyNIS, "1000.00")

	const rounds = 25
	var wg sync.WaitGroup
	send := func(from uuid.UUID, to string) {
		defer wg.Done()
		_, _ = b.transfers.Transfer(context.Background(), ports.TransferRequest{
			SourceAccountID:          from,
			DestinationAccountNumber: to,
			Amount:                   dec("10.00"),
		})
	}
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go send(x.ID, y.AccountNumber)
		go send(y.ID, x.AccountNumber)
	}
	wg.Wait()

	total := dec(b.balance(t, x.ID)).Add(dec(b.balance(t, y.ID)))
	assertDecimal(t, "2000.00", total)

	// every transfer is one debit and one credit, each carrying its own fee
	transfers := 0
	for _, id := range []uuid.UUID{x.ID, y.ID} {
		for _, e := range b.entries(t, id) {
			if e.TransactionType != domain.TransactionTypeTransfer {
				continue
			}
			transfers++
			assertDecimal(t, "0.10", e.Fee)
			require.NotNil(t, e.CounterpartyAccountID)
		}
	}
	assert.Equal(t, 2*2*rounds, transfers)
}

func TestMemoryLedger_CrossCurrencyTransfer(t *testing.T) {
	b := newBank(t, "10000000.00")
	nis := b.open(t, domain.CurrencyNIS, "1000.00")
	usd := b.open(t, domain.CurrencyUSD, "500.00")

	res, err := b.transfers.Transfer(context.Background(), ports.TransferRequest{
		SourceAccountID:          nis.ID,
		DestinationAccountNumber: usd.AccountNumber,
		Amount:                   dec("200.00"),
	})
	require.NoError(t, err)
	assertDecimal(t, "700.00", res.CreditedAmount)
	assert.Equal(t, "800.00", b.balance(t, nis.ID))
	assert.Equal(t, "1200.00", b.balance(t, usd.ID))

	stats, err := b.reporting.GetStats(context.Background(), usd.ID, "all")
	require.NoError(t, err)
	assertDecimal(t, "1200.00", stats.TotalCredited)
	assertDecimal(t, "12.00", stats.TotalFees)
}

func TestMemoryLedger_IdempotentDepositMovesMoneyOnce(t *testing.T) {
	b := newBank(t, "10000000.00")
	a := b.open(t, domain.CurrencyNIS, "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.ledger.Deposit(context.Background(), ports.MoneyRequest{
				AccountID: a.ID, Amount: dec("100.00"), IdempotencyKey: "dep-1",
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, "100.00", b.balance(t, a.ID))
	assert.Len(t, b.entries(t, a.ID), 1)

	replayed, err := b.ledger.Deposit(context.Background(), ports.MoneyRequest{
		AccountID: a.ID, Amount: dec("100.00"), IdempotencyKey: "dep-1",
	})
	require.NoError(t, err)
	assertDecimal(t, "100.00", replayed.Balance)
}

func TestMemoryLedger_LoansNeverOverdrawTreasury(t *testing.T) {
	b := newBank(t, "120000.00")
	end := time.Now().UTC().AddDate(2, 0, 0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 5; i++ {
		a := b.open(t, domain.CurrencyNIS, "")
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := b.loans.OriginateLoan(context.Background(), ports.LoanRequest{
				AccountID: id, Amount: dec("50000.00"), InterestRate: dec("3.5"), EndDate: end,
			})
			if err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}(a.ID)
	}
	wg.Wait()

	assert.Equal(t, 2, granted)
	balance, err := b.treasury.Balance(context.Background())
	require.NoError(t, err)
	assertDecimal(t, "20000.00", balance.Balance)
}

func TestMemoryLedger_DeleteCascades(t *testing.T) {
	b := newBank(t, "10000000.00")
	ctx := context.Background()
	a := b.open(t, domain.CurrencyEUR, "100.00")
	_, err := b.ledger.Withdraw(ctx, ports.MoneyRequest{AccountID: a.ID, Amount: dec("100.00"), IdempotencyKey: "w-1"})
	require.NoError(t, err)

	_, err = b.loans.OriginateLoan(ctx, ports.LoanRequest{
		AccountID: a.ID, Amount: dec("1000.00"), InterestRate: dec("12"), EndDate: time.Now().UTC().AddDate(1, 0, 0),
	})
	require.NoError(t, err)

	require.NoError(t, b.ledger.DeleteAccount(ctx, a.ID))

	_, err = b.ledger.GetBalance(ctx, a.ID)
	requireCode(t, err, "LED_004")
	assert.Empty(t, b.entries(t, a.ID))

	loans, err := b.loans.ListLoans(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, loans)

	// the account owner may open a fresh account afterwards
	_, err = b.ledger.OpenAccount(ctx, a.OwnerID, domain.CurrencyNIS)
	require.NoError(t, err)
}

func TestMemoryLedger_SuspendDoesNotTouchBalance(t *testing.T) {
	b := newBank(t, "10000000.00")
	a := b.open(t, domain.CurrencyNIS, "25.00")

	for _, action := range []domain.AccountStatusAction{domain.AccountActionSuspend, domain.AccountActionActivate} {
		t.Run(fmt.Sprint(action), func(t *testing.T) {
			_, err := b.ledger.SetActive(context.Background(), a.ID, action)
			require.NoError(t, err)
			assert.Equal(t, "25.00", b.balance(t, a.ID))
		})
	}
}
