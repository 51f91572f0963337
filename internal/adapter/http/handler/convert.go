package handler

import (
	"time"

	"banking-ledger/internal/adapter/http/dto"
	"banking-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:            a.ID.String(),
		AccountNumber: a.AccountNumber,
		Balance:       money(a.Balance),
		Currency:      string(a.Currency),
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:              t.ID.String(),
		Amount:          money(t.Amount),
		TransactionType: string(t.TransactionType),
		Direction:       string(t.Direction),
		Fee:             money(t.Fee),
		Currency:        string(t.Currency),
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.CounterpartyAccountID != nil {
		s := t.CounterpartyAccountID.String()
		resp.CounterpartyAccountID = &s
	}
	return resp
}

func toLoanResponse(l *domain.LoanRepayment) dto.LoanResponse {
	return dto.LoanResponse{
		ID:             l.ID.String(),
		Amount:         money(l.Amount),
		InterestRate:   l.InterestRate.String(),
		StartDate:      l.StartDate.UTC().Format(dateLayout),
		EndDate:        l.EndDate.UTC().Format(dateLayout),
		TermMonths:     l.TermMonths,
		MonthlyPayment: money(l.MonthlyPayment),
		Currency:       string(l.Currency),
		IsActive:       l.IsActive,
	}
}

func toStatsResponse(s *domain.TransactionStats) dto.StatsResponse {
	resp := dto.StatsResponse{
		Currency:      string(s.Currency),
		Period:        s.Period,
		Totals:        make(map[string]string, len(s.Totals)),
		Counts:        make(map[string]int64, len(s.Counts)),
		TotalCredited: money(s.TotalCredited),
		TotalDebited:  money(s.TotalDebited),
		TotalFees:     money(s.TotalFees),
	}
	for t, v := range s.Totals {
		resp.Totals[string(t)] = money(v)
	}
	for t, n := range s.Counts {
		resp.Counts[string(t)] = n
	}
	return resp
}
