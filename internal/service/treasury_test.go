package service

import (
	"context"
	"errors"
	"testing"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports/mocks"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewBankTreasury_EnsuresRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockTreasuryRepository(ctrl)
	repo.EXPECT().Ensure(gomock.Any(), dec("10000000.00")).Return(&domain.Treasury{ID: domain.TreasuryRowID, Balance: dec("10000000.00")}, nil)

	tr, err := NewBankTreasury(context.Background(), repo, dec("10000000.00"), dec("50000.00"), newTestLogger())
	require.NoError(t, err)
	assertDecimal(t, "50000", tr.MaxLoanAmount())
}

func TestNewBankTreasury_EnsureError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockTreasuryRepository(ctrl)
	repo.EXPECT().Ensure(gomock.Any(), gomock.Any()).Return(nil, errors.New("relation does not exist"))

	_, err := NewBankTreasury(context.Background(), repo, dec("1"), dec("1"), newTestLogger())
	require.Error(t, err)
}

func TestBankTreasury_CanGrantLoan(t *testing.T) {
	tr := &BankTreasury{maxLoan: dec("50000.00"), log: newTestLogger()}

	tests := []struct {
		name     string
		treasury string
		amount   string
		wantCode string
	}{
		{"covered", "10000000.00", "50000.00", ""},
		{"exactly covered", "100.00", "100.00", ""},
		{"over cap", "10000000.00", "50000.01", "LOAN_003"},
		{"over cap beats short treasury", "10.00", "60000.00", "LOAN_003"},
		{"treasury short", "99.99", "100.00", "LOAN_004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tr.CanGrantLoan(&domain.Treasury{Balance: dec(tt.treasury)}, dec(tt.amount))
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			requireCode(t, err, tt.wantCode)
		})
	}
}

func TestBankTreasury_Debit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockTreasuryRepository(ctrl)
	tr := &BankTreasury{repo: repo, maxLoan: dec("50000"), log: newTestLogger()}
	tx := &mockTx{}
	locked := &domain.Treasury{Balance: dec("1000.00")}

	repo.EXPECT().UpdateBalance(gomock.Any(), tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, bal decimal.Decimal) error {
			assertDecimal(t, "750", bal)
			return nil
		})

	require.NoError(t, tr.Debit(context.Background(), tx, locked, dec("250.00")))
	assertDecimal(t, "750", locked.Balance)
}

func TestBankTreasury_BalanceUninitialised(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockTreasuryRepository(ctrl)
	tr := &BankTreasury{repo: repo, log: newTestLogger()}

	repo.EXPECT().Get(gomock.Any()).Return(nil, nil)
	_, err := tr.Balance(context.Background())
	requireCode(t, err, "SYS_001")

	repo.EXPECT().GetForUpdate(gomock.Any(), gomock.Any()).Return(nil, nil)
	_, err = tr.Lock(context.Background(), &mockTx{})
	requireCode(t, err, "SYS_001")
}
