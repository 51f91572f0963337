package handler

import (
	"context"

	"banking-ledger/internal/adapter/http/dto"
	"banking-ledger/internal/adapter/http/middleware"
	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"
	"banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey makes a money movement safe to resend.
const HeaderIdempotencyKey = "Idempotency-Key"

// AccountHandler serves the caller's account and its money movements.
type AccountHandler struct {
	ledger   ports.LedgerService
	transfer ports.TransferService
	retry    *RetryPolicy
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledger ports.LedgerService, transfer ports.TransferService, retry *RetryPolicy) *AccountHandler {
	return &AccountHandler{ledger: ledger, transfer: transfer, retry: retry}
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	account, err := h.ledger.OpenAccount(c.Request.Context(), userID, domain.Currency(req.Currency))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAccountResponse(account))
}

// Get handles GET /api/v1/accounts/me.
func (h *AccountHandler) Get(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}
	response.OK(c, toAccountResponse(account))
}

// Delete handles DELETE /api/v1/accounts/me.
func (h *AccountHandler) Delete(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	err := h.retry.Do(c.Request.Context(), "delete_account", func(ctx context.Context) error {
		return h.ledger.DeleteAccount(ctx, account.ID)
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// SetStatus handles POST /api/v1/accounts/me/status.
func (h *AccountHandler) SetStatus(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	var req dto.AccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}

	var updated *domain.Account
	err := h.retry.Do(c.Request.Context(), "set_status", func(ctx context.Context) error {
		var err error
		updated, err = h.ledger.SetActive(ctx, account.ID, domain.AccountStatusAction(req.Action))
		return err
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAccountResponse(updated))
}

// Balance handles GET /api/v1/accounts/me/balance.
func (h *AccountHandler) Balance(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	view, err := h.ledger.GetBalance(c.Request.Context(), account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		AccountNumber: view.AccountNumber,
		Balance:       money(view.Balance),
		Currency:      string(view.Currency),
	})
}

// Deposit handles POST /api/v1/accounts/me/deposit.
func (h *AccountHandler) Deposit(c *gin.Context) {
	h.move(c, "deposit", h.ledger.Deposit)
}

// Withdraw handles POST /api/v1/accounts/me/withdraw.
func (h *AccountHandler) Withdraw(c *gin.Context) {
	h.move(c, "withdraw", h.ledger.Withdraw)
}

func (h *AccountHandler) move(c *gin.Context, op string, fn func(context.Context, ports.MoneyRequest) (*ports.LedgerResult, error)) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	if err := dto.ValidateAmount("amount", req.Amount); err != nil {
		response.Error(c, err)
		return
	}

	var result *ports.LedgerResult
	err := h.retry.Do(c.Request.Context(), op, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx, ports.MoneyRequest{
			AccountID:      account.ID,
			Amount:         *req.Amount,
			IdempotencyKey: key,
		})
		return err
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.MoneyResponse{
		Transaction: toTransactionResponse(result.Transaction),
		Balance:     money(result.Balance),
		Currency:    string(result.Currency),
	})
}

// Transfer handles POST /api/v1/accounts/me/transfer.
func (h *AccountHandler) Transfer(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	key, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	if err := dto.ValidateAmount("amount", req.Amount); err != nil {
		response.Error(c, err)
		return
	}

	var result *ports.TransferResult
	err := h.retry.Do(c.Request.Context(), "transfer", func(ctx context.Context) error {
		var err error
		result, err = h.transfer.Transfer(ctx, ports.TransferRequest{
			SourceAccountID:          account.ID,
			DestinationAccountNumber: req.ToAccount,
			Amount:                   *req.Amount,
			IdempotencyKey:           key,
		})
		return err
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.TransferResponse{
		Debit:          toTransactionResponse(result.Debit),
		Credit:         toTransactionResponse(result.Credit),
		Balance:        money(result.SourceBalance),
		CreditedAmount: money(result.CreditedAmount),
	})
}

// idempotencyKey reads the optional header. On a malformed key it writes the
// error response and returns false.
func idempotencyKey(c *gin.Context) (string, bool) {
	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" {
		return "", true
	}
	if !dto.ValidIdempotencyKey(key) {
		response.Error(c, apperror.ErrValidation("Idempotency-Key may only contain letters, digits, '_', '-' and '.' (max 100)"))
		return "", false
	}
	return key, true
}
