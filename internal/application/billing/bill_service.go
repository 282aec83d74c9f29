package billing

import (
	"context"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillService handles original and ledger bill operations. Mutations go
// through the owning period aggregate so creation and update events are
// raised and validated within the same transaction.
type BillService struct {
	periodRepo   billing.BillPeriodRepository
	originalRepo billing.OriginalBillRepository
	ledgerRepo   billing.LedgerBillRepository
	txManager    shared.TransactionManager
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewBillService creates a new BillService
func NewBillService(
	periodRepo billing.BillPeriodRepository,
	originalRepo billing.OriginalBillRepository,
	ledgerRepo billing.LedgerBillRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		periodRepo:   periodRepo,
		originalRepo: originalRepo,
		ledgerRepo:   ledgerRepo,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
	}
}

// ListOriginalBills lists a period's original bills
func (s *BillService) ListOriginalBills(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[BillResponse], error) {
	page, err := s.originalRepo.FindByPeriod(ctx, periodID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BillResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *ToOriginalBillResponse(&page.Items[i]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// GetOriginalBill retrieves one original bill
func (s *BillService) GetOriginalBill(ctx context.Context, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.originalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOriginalBillResponse(bill), nil
}

// CreateOriginalBill adds an original bill to a period. The validation
// reaction annotates the bill's exception field; it never blocks the
// write.
func (s *BillService) CreateOriginalBill(ctx context.Context, periodID uuid.UUID, payload BillPayload) (*BillResponse, error) {
	period, err := s.mutablePeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	bill := billing.NewOriginalBill()
	payload.Apply(&bill.Bill)
	period.CreateOriginalBill(bill)

	if err := s.saveAndPublish(ctx, period); err != nil {
		return nil, err
	}

	created, err := s.originalRepo.FindByID(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	return ToOriginalBillResponse(created), nil
}

// UpdateOriginalBill replaces an original bill's fields. The exception
// field is cleared and re-derived by the validation reaction.
func (s *BillService) UpdateOriginalBill(ctx context.Context, id uuid.UUID, payload BillPayload) (*BillResponse, error) {
	bill, err := s.originalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	period, err := s.mutablePeriod(ctx, bill.BillPeriodID)
	if err != nil {
		return nil, err
	}

	payload.Apply(&bill.Bill)
	if err := period.UpdateOriginalBill(bill); err != nil {
		return nil, err
	}

	if err := s.saveAndPublish(ctx, period); err != nil {
		return nil, err
	}

	updated, err := s.originalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOriginalBillResponse(updated), nil
}

// ListLedgerBills lists a period's ledger bills
func (s *BillService) ListLedgerBills(ctx context.Context, periodID uuid.UUID, filter shared.Filter) (*shared.Paginated[BillResponse], error) {
	page, err := s.ledgerRepo.FindByPeriod(ctx, periodID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BillResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *ToLedgerBillResponse(&page.Items[i]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// GetLedgerBill retrieves one ledger bill
func (s *BillService) GetLedgerBill(ctx context.Context, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToLedgerBillResponse(bill), nil
}

// UpdateLedgerBill replaces a ledger bill's fields, typically to correct
// its business allocation by hand.
func (s *BillService) UpdateLedgerBill(ctx context.Context, id uuid.UUID, payload BillPayload) (*BillResponse, error) {
	bill, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	period, err := s.mutablePeriod(ctx, bill.BillPeriodID)
	if err != nil {
		return nil, err
	}

	payload.Apply(&bill.Bill)
	if err := period.UpdateLedgerBill(bill); err != nil {
		return nil, err
	}

	if err := s.saveAndPublish(ctx, period); err != nil {
		return nil, err
	}

	updated, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToLedgerBillResponse(updated), nil
}

// mutablePeriod loads a period and rejects mutation when it is locked
func (s *BillService) mutablePeriod(ctx context.Context, periodID uuid.UUID) (*billing.BillPeriod, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Locked {
		return nil, shared.ErrPeriodLocked
	}
	return period, nil
}

func (s *BillService) saveAndPublish(ctx context.Context, period *billing.BillPeriod) error {
	return s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Save(ctx, period); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
}
