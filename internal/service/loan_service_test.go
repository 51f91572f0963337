package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var loanClock = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

type loanMocks struct {
	accounts   *mocks.MockAccountRepository
	loans      *mocks.MockLoanRepository
	treasury   *mocks.MockTreasuryRepository
	transactor *mocks.MockDBTransactor
	publisher  *mocks.MockEventPublisher
}

func setupLoanService(t *testing.T) (*LoanServiceImpl, *loanMocks, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	m := &loanMocks{
		accounts:   mocks.NewMockAccountRepository(ctrl),
		loans:      mocks.NewMockLoanRepository(ctrl),
		treasury:   mocks.NewMockTreasuryRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		publisher:  mocks.NewMockEventPublisher(ctrl),
	}

	treasury := &BankTreasury{repo: m.treasury, maxLoan: dec("50000.00"), log: newTestLogger()}
	svc := NewLoanService(m.accounts, m.loans, treasury, m.transactor, m.publisher, newTestLogger())
	svc.now = func() time.Time { return loanClock }
	return svc, m, ctrl
}

func TestLoanService_OriginateLoan_Success(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	account := newTestAccount("0")
	tx := &mockTx{}

	m.accounts.EXPECT().GetByID(ctx, account.ID).Return(account, nil)
	gomock.InOrder(
		m.transactor.EXPECT().Begin(ctx).Return(tx, nil),
		m.accounts.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil),
		m.treasury.EXPECT().GetForUpdate(ctx, tx).Return(&domain.Treasury{ID: 1, Balance: dec("10000000.00")}, nil),
		m.loans.EXPECT().Create(ctx, tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, l *domain.Loan) error {
				assert.Equal(t, account.ID, l.AccountID)
				assert.True(t, l.IsActive)
				assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), l.StartDate)
				return nil
			}),
		m.treasury.EXPECT().UpdateBalance(ctx, tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, bal decimal.Decimal) error {
				assertDecimal(t, "9990000.00", bal)
				return nil
			}),
		m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil),
	)

	repayment, err := svc.OriginateLoan(ctx, ports.LoanRequest{
		AccountID:    account.ID,
		Amount:       dec("10000.00"),
		InterestRate: dec("5"),
		EndDate:      time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Equal(t, 12, repayment.TermMonths)
	assert.Equal(t, "856.07", repayment.MonthlyPayment.StringFixed(2))
}

func TestLoanService_OriginateLoan_CapIsInclusive(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	account := newTestAccount("0")
	tx := &mockTx{}

	m.accounts.EXPECT().GetByID(ctx, account.ID).Return(account, nil)
	m.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	m.accounts.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)
	m.treasury.EXPECT().GetForUpdate(ctx, tx).Return(&domain.Treasury{Balance: dec("50000.00")}, nil)
	m.loans.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	m.treasury.EXPECT().UpdateBalance(ctx, tx, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	repayment, err := svc.OriginateLoan(ctx, ports.LoanRequest{
		AccountID:    account.ID,
		Amount:       dec("50000.00"),
		InterestRate: dec("0"),
		EndDate:      loanClock.AddDate(2, 0, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "2083.33", repayment.MonthlyPayment.StringFixed(2))
}

func TestLoanService_OriginateLoan_ExceedsCap(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	account := newTestAccount("0")
	m.accounts.EXPECT().GetByID(ctx, account.ID).Return(account, nil)

	_, err := svc.OriginateLoan(ctx, ports.LoanRequest{
		AccountID:    account.ID,
		Amount:       dec("50000.01"),
		InterestRate: dec("3"),
		EndDate:      loanClock.AddDate(1, 0, 0),
	})
	requireCode(t, err, "LOAN_003")
}

func TestLoanService_OriginateLoan_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		rate     string
		end      time.Time
		wantCode string
	}{
		{"zero amount", "0", "5", loanClock.AddDate(1, 0, 0), "LED_000"},
		{"negative rate", "100", "-1", loanClock.AddDate(1, 0, 0), "LED_000"},
		{"end date today", "100", "5", loanClock, "LOAN_002"},
		{"end date in the past", "100", "5", loanClock.AddDate(0, 0, -1), "LOAN_002"},
		{"term under a month", "100", "5", loanClock.AddDate(0, 0, 10), "LOAN_005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, ctrl := setupLoanService(t)
			defer ctrl.Finish()

			account := newTestAccount("0")
			m.accounts.EXPECT().GetByID(gomock.Any(), account.ID).Return(account, nil).AnyTimes()

			_, err := svc.OriginateLoan(context.Background(), ports.LoanRequest{
				AccountID:    account.ID,
				Amount:       dec(tt.amount),
				InterestRate: dec(tt.rate),
				EndDate:      tt.end,
			})
			requireCode(t, err, tt.wantCode)
		})
	}
}

func TestLoanService_OriginateLoan_InactiveAccount(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	account := newTestAccount("0")
	account.IsActive = false
	m.accounts.EXPECT().GetByID(ctx, account.ID).Return(account, nil)

	_, err := svc.OriginateLoan(ctx, ports.LoanRequest{
		AccountID:    account.ID,
		Amount:       dec("100"),
		InterestRate: dec("5"),
		EndDate:      loanClock.AddDate(1, 0, 0),
	})
	requireCode(t, err, "LOAN_001")
}

func TestLoanService_OriginateLoan_RejectionOrder(t *testing.T) {
	tests := []struct {
		name     string
		active   bool
		amount   string
		end      time.Time
		wantCode string
	}{
		{"inactive account before cap", false, "50000.01", loanClock.AddDate(1, 0, 0), "LOAN_001"},
		{"inactive account before dates", false, "100", loanClock, "LOAN_001"},
		{"dates before cap", true, "50000.01", loanClock.AddDate(0, 0, -1), "LOAN_002"},
		{"term before cap", true, "50000.01", loanClock.AddDate(0, 0, 10), "LOAN_005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, ctrl := setupLoanService(t)
			defer ctrl.Finish()

			ctx := context.Background()
			account := newTestAccount("0")
			account.IsActive = tt.active
			m.accounts.EXPECT().GetByID(ctx, account.ID).Return(account, nil)

			_, err := svc.OriginateLoan(ctx, ports.LoanRequest{
				AccountID:    account.ID,
				Amount:       dec(tt.amount),
				InterestRate: dec("5"),
				EndDate:      tt.end,
			})
			requireCode(t, err, tt.wantCode)
		})
	}
}

func TestLoanService_OriginateLoan_AccountNotFound(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	m.accounts.EXPECT().GetByID(ctx, id).Return(nil, nil)

	_, err := svc.OriginateLoan(ctx, ports.LoanRequest{
		AccountID:    id,
		Amount:       dec("100"),
		InterestRate: dec("5"),
		EndDate:      loanClock.AddDate(1, 0, 0),
	})
	requireCode(t, err, "LED_004")
}

func TestLoanService_OriginateLoan_TreasuryShort(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	account := newTestAccount("0")
	tx := &mockTx{}

	m.accounts.EXPECT().GetByID(ctx, account.ID).Return(account, nil)
	m.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	m.accounts.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)
	m.treasury.EXPECT().GetForUpdate(ctx, tx).Return(&domain.Treasury{Balance: dec("999.99")}, nil)

	_, err := svc.OriginateLoan(ctx, ports.LoanRequest{
		AccountID:    account.ID,
		Amount:       dec("1000.00"),
		InterestRate: dec("12"),
		EndDate:      loanClock.AddDate(1, 0, 0),
	})
	requireCode(t, err, "LOAN_004")
	assert.False(t, tx.committed)
}

func TestLoanService_OriginateLoan_TreasuryDebitFailsRollsBack(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	account := newTestAccount("0")
	tx := &mockTx{}

	m.accounts.EXPECT().GetByID(ctx, account.ID).Return(account, nil)
	m.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	m.accounts.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)
	m.treasury.EXPECT().GetForUpdate(ctx, tx).Return(&domain.Treasury{Balance: dec("5000.00")}, nil)
	m.loans.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	m.treasury.EXPECT().UpdateBalance(ctx, tx, gomock.Any()).Return(errors.New("serialization failure"))

	_, err := svc.OriginateLoan(ctx, ports.LoanRequest{
		AccountID:    account.ID,
		Amount:       dec("1000.00"),
		InterestRate: dec("12"),
		EndDate:      loanClock.AddDate(1, 0, 0),
	})
	requireCode(t, err, "SYS_001")
	assert.True(t, tx.rolledBack)
}

func TestLoanService_ListLoans(t *testing.T) {
	svc, m, ctrl := setupLoanService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m.loans.EXPECT().ListByAccount(ctx, accountID).Return([]domain.Loan{
		{ID: uuid.New(), AccountID: accountID, Amount: dec("1000"), InterestRate: dec("12"), StartDate: start, EndDate: start.AddDate(1, 0, 0)},
		{ID: uuid.New(), AccountID: accountID, Amount: dec("12000"), InterestRate: dec("0"), StartDate: start, EndDate: start.AddDate(1, 0, 0)},
	}, nil)

	loans, err := svc.ListLoans(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "88.85", loans[0].MonthlyPayment.StringFixed(2))
	assert.Equal(t, "1000.00", loans[1].MonthlyPayment.StringFixed(2))
}

func TestMonthlyPayment(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		amount string
		rate   string
		months int
		want   string
	}{
		{"10000", "5", 12, "856.07"},
		{"1000", "12", 12, "88.85"},
		{"50000", "0", 24, "2083.33"},
		{"50000", "3.5", 60, "909.59"},
		{"12000", "0", 12, "1000.00"},
		{"20000", "7.25", 36, "619.83"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+"@"+tt.rate, func(t *testing.T) {
			l := &domain.Loan{
				Amount:       dec(tt.amount),
				InterestRate: dec(tt.rate),
				StartDate:    start,
				EndDate:      start.AddDate(0, tt.months, 0),
			}
			got, err := MonthlyPayment(l)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestMonthlyPayment_ZeroTerm(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := MonthlyPayment(&domain.Loan{Amount: dec("100"), InterestRate: dec("5"), StartDate: start, EndDate: start.AddDate(0, 0, 20)})
	requireCode(t, err, "LOAN_005")
}
