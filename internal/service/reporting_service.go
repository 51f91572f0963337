package service

import (
	"context"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	txRepo ports.TransactionRepository
	now    func() time.Time
}

// NewReportingService creates a new reporting service.
func NewReportingService(txRepo ports.TransactionRepository) ports.ReportingService {
	return &reportingService{
		txRepo: txRepo,
		now:    time.Now,
	}
}

// GetStats returns per-type totals and fees for the account over period.
func (s *reportingService) GetStats(ctx context.Context, accountID uuid.UUID, period string) (*domain.TransactionStats, error) {
	var periodStart *time.Time

	now := s.now().UTC()
	switch period {
	case "day":
		t := now.AddDate(0, 0, -1)
		periodStart = &t
	case "week":
		t := now.AddDate(0, 0, -7)
		periodStart = &t
	case "month":
		t := now.AddDate(0, -1, 0)
		periodStart = &t
	case "all", "":
		period = "all"
	default:
		return nil, apperror.ErrValidation("invalid period: must be day, week, month, or all")
	}

	stats, err := s.txRepo.GetStats(ctx, accountID, periodStart)
	if err != nil {
		return nil, wrapErr("get stats", err)
	}
	if stats == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	stats.Period = period

	return stats, nil
}

// ListTransactions returns a page of the account's entries, newest first.
func (s *reportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Type != nil && !params.Type.IsValid() {
		return nil, 0, apperror.ErrInvalidTransactionType(string(*params.Type))
	}
	if params.From != nil && params.To != nil && params.From.After(*params.To) {
		return nil, 0, apperror.ErrValidation("from must not be after to")
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, wrapErr("list transactions", err)
	}
	return txns, total, nil
}
