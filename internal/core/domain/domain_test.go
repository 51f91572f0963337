package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAccount_CanWithdraw(t *testing.T) {
	floor := d("-100.00")

	tests := []struct {
		name    string
		balance string
		amount  string
		want    bool
	}{
		{"well covered", "1000.00", "300.00", true},
		{"lands exactly on floor", "0.00", "100.00", true},
		{"one cent past floor", "0.00", "100.01", false},
		{"already overdrawn", "-50.00", "50.00", true},
		{"overdrawn past floor", "-50.00", "50.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Balance: d(tt.balance)}
			assert.Equal(t, tt.want, a.CanWithdraw(d(tt.amount), floor))
		})
	}
}

func TestAccount_CanTransfer(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		amount  string
		want    bool
	}{
		{"covered", "1000.00", "200.00", true},
		{"exact balance", "200.00", "200.00", true},
		{"overdraft not allowed", "50.00", "50.01", false},
		{"negative balance", "-10.00", "0.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Balance: d(tt.balance)}
			assert.Equal(t, tt.want, a.CanTransfer(d(tt.amount)))
		})
	}
}

func TestAccount_IsEmpty(t *testing.T) {
	assert.True(t, (&Account{Balance: d("0.00")}).IsEmpty())
	assert.True(t, (&Account{Balance: decimal.Zero}).IsEmpty())
	assert.False(t, (&Account{Balance: d("0.01")}).IsEmpty())
	assert.False(t, (&Account{Balance: d("-0.01")}).IsEmpty())
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3.00", "3"},
		{"0.125", "0.13"},
		{"0.135", "0.14"},
		{"0.124", "0.12"},
		{"12.345", "12.35"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(RoundMoney(d(tt.in))), "got %s", RoundMoney(d(tt.in)))
		})
	}
}

func TestTransactionType_IsValid(t *testing.T) {
	tests := []struct {
		txType TransactionType
		want   bool
	}{
		{TransactionTypeDeposit, true},
		{TransactionTypeWithdraw, true},
		{TransactionTypeTransfer, true},
		{TransactionType("REFUND"), false},
		{TransactionType("deposit"), false},
		{TransactionType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txType.IsValid())
		})
	}
}

func TestDirectionFor(t *testing.T) {
	assert.Equal(t, DirectionCredit, DirectionFor(TransactionTypeDeposit))
	assert.Equal(t, DirectionDebit, DirectionFor(TransactionTypeWithdraw))
}

func TestMonthsBetween(t *testing.T) {
	date := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"one year", date(2024, time.January, 15), date(2025, time.January, 15), 12},
		{"days ignored", date(2024, time.January, 31), date(2024, time.February, 1), 1},
		{"same month", date(2024, time.March, 1), date(2024, time.March, 28), 0},
		{"across year boundary", date(2024, time.November, 10), date(2025, time.February, 10), 3},
		{"end before start", date(2024, time.May, 1), date(2024, time.March, 1), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsBetween(tt.start, tt.end))
			l := &Loan{StartDate: tt.start, EndDate: tt.end}
			assert.Equal(t, tt.want, l.TermMonths())
		})
	}
}

func TestTreasury_Covers(t *testing.T) {
	tr := &Treasury{Balance: d("1000.00")}
	assert.True(t, tr.Covers(d("999.99")))
	assert.True(t, tr.Covers(d("1000.00")))
	assert.False(t, tr.Covers(d("1000.01")))
}

func TestBuildIdempotencyKey(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	key := BuildIdempotencyKey(id, TransactionTypeDeposit, "req-001")
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000:DEPOSIT:req-001", key)
}

func TestNewLedgerEvent(t *testing.T) {
	id := uuid.New()
	ev := NewLedgerEvent(EventDeposited, id)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, EventDeposited, ev.Type)
	assert.Equal(t, id, ev.AccountID)
	assert.WithinDuration(t, time.Now().UTC(), ev.OccurredAt, time.Second)
}

func TestTransactionType_Constants(t *testing.T) {
	assert.Equal(t, TransactionType("DEPOSIT"), TransactionTypeDeposit)
	assert.Equal(t, TransactionType("WITHDRAW"), TransactionTypeWithdraw)
	assert.Equal(t, TransactionType("TRANSFER"), TransactionTypeTransfer)
}

func TestTransactionStats_Add(t *testing.T) {
	s := NewTransactionStats(uuid.New(), CurrencyNIS)
	assert.Len(t, s.Totals, 3)

	s.Add(TransactionTypeDeposit, DirectionCredit, 2, d("300.00"), d("3.00"))
	s.Add(TransactionTypeTransfer, DirectionDebit, 1, d("100.00"), d("1.00"))
	s.Add(TransactionTypeTransfer, DirectionCredit, 1, d("28.57"), d("0.29"))

	assert.Equal(t, "300.00", s.Totals[TransactionTypeDeposit].StringFixed(2))
	assert.Equal(t, "128.57", s.Totals[TransactionTypeTransfer].StringFixed(2))
	assert.Equal(t, int64(2), s.Counts[TransactionTypeTransfer])
	assert.Equal(t, int64(0), s.Counts[TransactionTypeWithdraw])
	assert.Equal(t, "328.57", s.TotalCredited.StringFixed(2))
	assert.Equal(t, "100.00", s.TotalDebited.StringFixed(2))
	assert.Equal(t, "4.29", s.TotalFees.StringFixed(2))
}
