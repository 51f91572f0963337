package service

import (
	"context"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// powPrecision is the number of fractional digits kept while compounding.
const powPrecision = 20

// LoanServiceImpl implements ports.LoanService.
type LoanServiceImpl struct {
	accounts   ports.AccountRepository
	loans      ports.LoanRepository
	treasury   *BankTreasury
	transactor ports.DBTransactor
	publisher  ports.EventPublisher
	log        zerolog.Logger
	now        func() time.Time
}

// NewLoanService creates a new LoanServiceImpl.
func NewLoanService(
	accounts ports.AccountRepository,
	loans ports.LoanRepository,
	treasury *BankTreasury,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	log zerolog.Logger,
) *LoanServiceImpl {
	return &LoanServiceImpl{
		accounts:   accounts,
		loans:      loans,
		treasury:   treasury,
		transactor: transactor,
		publisher:  publisher,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// OriginateLoan books a loan against the treasury. The loan row and the
// treasury debit commit in the same DB transaction.
func (s *LoanServiceImpl) OriginateLoan(ctx context.Context, req ports.LoanRequest) (*domain.LoanRepayment, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.InterestRate.IsNegative() {
		return nil, apperror.ErrValidation("Interest rate must not be negative")
	}

	// Rejections are reported in order: inactive account, dates, cap.
	account, err := s.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, wrapErr("get account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if !account.IsActive {
		return nil, apperror.ErrInactiveAccount()
	}

	start := truncateToDate(s.now())
	end := truncateToDate(req.EndDate)
	if !end.After(start) {
		return nil, apperror.ErrInvalidDateRange()
	}
	if domain.MonthsBetween(start, end) < 1 {
		return nil, apperror.ErrInvalidTerm()
	}

	// The cap holds regardless of the treasury's balance.
	if req.Amount.GreaterThan(s.treasury.MaxLoanAmount()) {
		return nil, apperror.ErrLoanExceedsMaxLimit(s.treasury.MaxLoanAmount().StringFixed(domain.MoneyPlaces))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, wrapErr("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock order: account, then treasury.
	account, err = s.accounts.GetByIDForUpdate(ctx, dbTx, req.AccountID)
	if err != nil {
		return nil, wrapErr("lock account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if !account.IsActive {
		return nil, apperror.ErrInactiveAccount()
	}

	t, err := s.treasury.Lock(ctx, dbTx)
	if err != nil {
		return nil, err
	}
	if err := s.treasury.CanGrantLoan(t, req.Amount); err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ID:           uuid.New(),
		AccountID:    account.ID,
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		StartDate:    start,
		EndDate:      end,
		IsActive:     true,
		Currency:     account.Currency,
		CreatedAt:    s.now(),
	}
	if err := s.loans.Create(ctx, dbTx, loan); err != nil {
		return nil, wrapErr("create loan", err)
	}
	if err := s.treasury.Debit(ctx, dbTx, t, req.Amount); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, wrapErr("commit tx", err)
	}

	repayment, err := withPayment(*loan)
	if err != nil {
		return nil, err
	}

	ev := domain.NewLedgerEvent(domain.EventLoanOriginated, account.ID)
	ev.LoanID = &loan.ID
	ev.Amount = &loan.Amount
	ev.Currency = loan.Currency
	publish(ctx, s.publisher, s.log, ev)

	s.log.Info().
		Str("loan_id", loan.ID.String()).
		Str("account_id", account.ID.String()).
		Str("amount", loan.Amount.StringFixed(domain.MoneyPlaces)).
		Str("treasury_balance", t.Balance.StringFixed(domain.MoneyPlaces)).
		Msg("loan originated")

	return repayment, nil
}

// ListLoans returns every loan of the account with its monthly payment.
func (s *LoanServiceImpl) ListLoans(ctx context.Context, accountID uuid.UUID) ([]domain.LoanRepayment, error) {
	loans, err := s.loans.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, wrapErr("list loans", err)
	}

	out := make([]domain.LoanRepayment, 0, len(loans))
	for _, l := range loans {
		r, err := withPayment(l)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func withPayment(l domain.Loan) (*domain.LoanRepayment, error) {
	payment, err := MonthlyPayment(&l)
	if err != nil {
		return nil, err
	}
	return &domain.LoanRepayment{
		Loan:           l,
		MonthlyPayment: payment,
		TermMonths:     l.TermMonths(),
	}, nil
}

// MonthlyPayment computes the fixed installment of an amortizing loan:
// P*r*(1+r)^n / ((1+r)^n - 1) with r the monthly rate, or P/n at zero
// interest. The result is rounded half-up to two places.
func MonthlyPayment(l *domain.Loan) (decimal.Decimal, error) {
	months := l.TermMonths()
	if months <= 0 {
		return decimal.Zero, apperror.ErrInvalidTerm()
	}
	n := decimal.NewFromInt(int64(months))

	if l.InterestRate.IsZero() {
		return domain.RoundMoney(l.Amount.DivRound(n, powPrecision)), nil
	}

	r := l.InterestRate.DivRound(decimal.NewFromInt(1200), powPrecision)
	growth := compound(decimal.NewFromInt(1).Add(r), months)
	payment := l.Amount.Mul(r).Mul(growth).DivRound(growth.Sub(decimal.NewFromInt(1)), powPrecision)
	return domain.RoundMoney(payment), nil
}

// compound returns base^n, truncating to powPrecision digits at each step.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		result = result.Mul(base).Truncate(powPrecision)
	}
	return result
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
