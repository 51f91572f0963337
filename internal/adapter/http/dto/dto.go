package dto

import "github.com/shopspring/decimal"

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the response body for successful registration.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateAccountRequest opens the caller's account.
type CreateAccountRequest struct {
	Currency string `json:"currency" binding:"required,currency_code"`
}

// AccountStatusRequest activates or suspends the caller's account.
type AccountStatusRequest struct {
	Action string `json:"action" binding:"required,oneof=activate suspend"`
}

// AmountRequest is the body of a deposit or withdrawal. Amount accepts a
// JSON number or string and is checked by ValidateAmount.
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// TransferRequest moves money to another account by number.
type TransferRequest struct {
	ToAccount string           `json:"to_account" binding:"required,max=20,account_number"`
	Amount    *decimal.Decimal `json:"amount"`
}

// LoanRequest originates a loan. EndDate is YYYY-MM-DD.
type LoanRequest struct {
	Amount       *decimal.Decimal `json:"amount"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
	EndDate      string           `json:"end_date" binding:"required"`
}

// AccountResponse describes an account. Money is a fixed two-place string.
type AccountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	AccountNumber string `json:"account_number"`
	Balance       string `json:"balance"`
	Currency      string `json:"currency"`
}

// TransactionResponse is one ledger entry.
type TransactionResponse struct {
	ID                    string  `json:"id"`
	Amount                string  `json:"amount"`
	TransactionType       string  `json:"transaction_type"`
	Direction             string  `json:"direction"`
	Fee                   string  `json:"fee"`
	Currency              string  `json:"currency"`
	CounterpartyAccountID *string `json:"counterparty_account_id,omitempty"`
	CreatedAt             string  `json:"created_at"`
}

// MoneyResponse is the result of a deposit or withdrawal.
type MoneyResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Balance     string              `json:"balance"`
	Currency    string              `json:"currency"`
}

// TransferResponse carries both legs of a transfer.
type TransferResponse struct {
	Debit          TransactionResponse `json:"debit"`
	Credit         TransactionResponse `json:"credit"`
	Balance        string              `json:"balance"`
	CreditedAmount string              `json:"credited_amount"`
}

// TransactionListResponse wraps paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// StatsResponse is the per-type summary of an account's entries.
type StatsResponse struct {
	Currency      string            `json:"currency"`
	Period        string            `json:"period"`
	Totals        map[string]string `json:"totals"`
	Counts        map[string]int64  `json:"counts"`
	TotalCredited string            `json:"total_credited"`
	TotalDebited  string            `json:"total_debited"`
	TotalFees     string            `json:"total_fees"`
}

// LoanResponse describes a loan and its installment.
type LoanResponse struct {
	ID             string `json:"id"`
	Amount         string `json:"amount"`
	InterestRate   string `json:"interest_rate"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	TermMonths     int    `json:"term_months"`
	MonthlyPayment string `json:"monthly_payment"`
	Currency       string `json:"currency"`
	IsActive       bool   `json:"is_active"`
}
