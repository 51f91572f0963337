package handler

import (
	"context"
	"time"

	"banking-ledger/internal/adapter/http/dto"
	"banking-ledger/internal/adapter/http/middleware"
	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"
	"banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// LoanHandler serves loan origination and listing.
type LoanHandler struct {
	loanSvc ports.LoanService
	retry   *RetryPolicy
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanSvc ports.LoanService, retry *RetryPolicy) *LoanHandler {
	return &LoanHandler{loanSvc: loanSvc, retry: retry}
}

// Originate handles POST /api/v1/loans.
func (h *LoanHandler) Originate(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	var req dto.LoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	if err := dto.ValidateAmount("amount", req.Amount); err != nil {
		response.Error(c, err)
		return
	}
	if req.InterestRate == nil {
		response.Error(c, apperror.ErrValidation("interest_rate is required"))
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		response.Error(c, apperror.ErrValidation("end_date must be YYYY-MM-DD"))
		return
	}

	var loan *domain.LoanRepayment
	err = h.retry.Do(c.Request.Context(), "originate_loan", func(ctx context.Context) error {
		var err error
		loan, err = h.loanSvc.OriginateLoan(ctx, ports.LoanRequest{
			AccountID:    account.ID,
			Amount:       *req.Amount,
			InterestRate: *req.InterestRate,
			EndDate:      endDate,
		})
		return err
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toLoanResponse(loan))
}

// List handles GET /api/v1/loans.
func (h *LoanHandler) List(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	loans, err := h.loanSvc.ListLoans(c.Request.Context(), account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LoanResponse, 0, len(loans))
	for i := range loans {
		items = append(items, toLoanResponse(&loans[i]))
	}
	response.OK(c, items)
}
