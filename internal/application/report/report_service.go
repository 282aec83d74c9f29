package report

import (
	"context"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/report"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportService exposes the cost report read model built on top of
// already-split ledger bills. It never mutates billing state.
type ReportService struct {
	periodRepo billing.BillPeriodRepository
	logger     *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(periodRepo billing.BillPeriodRepository, logger *zap.Logger) *ReportService {
	return &ReportService{
		periodRepo: periodRepo,
		logger:     logger,
	}
}

// PeriodReportResponse is the full report of one period
type PeriodReportResponse struct {
	PeriodID       uuid.UUID       `json:"period_id"`
	Period         string          `json:"period"`
	State          report.State    `json:"state"`
	Total          decimal.Decimal `json:"total"`
	ByBusiness     []report.Slice  `json:"by_business"`
	ByServiceType  []report.Slice  `json:"by_service_type"`
	ByTypeLevel1   []report.Slice  `json:"by_type_level_1"`
	AbnormalBills  int             `json:"abnormal_bills"`
	LedgerBillSize int             `json:"ledger_bill_count"`
}

// TrendResponse is the consumption trend across all periods
type TrendResponse struct {
	Points []report.TrendPoint `json:"points"`
}

// PeriodReport builds the distribution report of one period
func (s *ReportService) PeriodReport(ctx context.Context, periodID uuid.UUID) (*PeriodReportResponse, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}

	return &PeriodReportResponse{
		PeriodID:       period.ID,
		Period:         period.Label(),
		State:          report.StateOf(period),
		Total:          report.CalcTotal(period.LedgerBills),
		ByBusiness:     report.ByBusiness(period.LedgerBills),
		ByServiceType:  report.ByServiceType(period.LedgerBills),
		ByTypeLevel1:   report.ByTypeLevel1(period.LedgerBills),
		AbnormalBills:  period.AbnormalLedgerBillCount(),
		LedgerBillSize: len(period.LedgerBills),
	}, nil
}

// Trend builds the per-service-type consumption trend across all
// periods, ordered chronologically by period timestamp.
func (s *ReportService) Trend(ctx context.Context) (*TrendResponse, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 1000
	filter.OrderBy = "timestamp"
	filter.OrderDir = "asc"

	page, err := s.periodRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TrendResponse{Points: report.Trend(page.Items)}, nil
}
