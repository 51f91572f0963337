package handler

import (
	"math"
	"strconv"
	"time"

	"banking-ledger/internal/adapter/http/dto"
	"banking-ledger/internal/adapter/http/middleware"
	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"
	"banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TransactionHandler serves the caller's transaction history.
type TransactionHandler struct {
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{reportingSvc: reportingSvc}
}

// Stats handles GET /api/v1/transactions/stats.
func (h *TransactionHandler) Stats(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	stats, err := h.reportingSvc.GetStats(c.Request.Context(), account.ID, c.DefaultQuery("period", "all"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toStatsResponse(stats))
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	account, ok := middleware.Account(c)
	if !ok {
		response.Error(c, apperror.ErrAccountNotFound())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := ports.TransactionListParams{
		AccountID: account.ID,
		Page:      page,
		PageSize:  pageSize,
	}

	if t := c.Query("type"); t != "" {
		txType := domain.TransactionType(t)
		params.Type = &txType
	}
	bounds := []struct {
		name string
		dst  **time.Time
	}{{"from", &params.From}, {"to", &params.To}}
	for _, b := range bounds {
		raw := c.Query(b.name)
		if raw == "" {
			continue
		}
		ts, err := parseTime(raw)
		if err != nil {
			response.Error(c, apperror.ErrValidation(b.name+" must be RFC3339 or YYYY-MM-DD"))
			return
		}
		*b.dst = &ts
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateLayout, s)
}
