package billing

import (
	"context"
	"errors"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillPeriodService handles billing-period lifecycle operations. Every
// mutation runs inside one transaction: the aggregate is saved, then its
// pending events are dispatched synchronously, and a handler failure
// rolls the whole operation back.
type BillPeriodService struct {
	periodRepo billing.BillPeriodRepository
	txManager  shared.TransactionManager
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewBillPeriodService creates a new BillPeriodService
func NewBillPeriodService(
	periodRepo billing.BillPeriodRepository,
	txManager shared.TransactionManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *BillPeriodService {
	return &BillPeriodService{
		periodRepo: periodRepo,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger,
	}
}

// Create creates a billing period. At most one period may exist per
// (year, month); a second create is a conflict.
func (s *BillPeriodService) Create(ctx context.Context, req CreateBillPeriodRequest) (*BillPeriodResponse, error) {
	existing, err := s.periodRepo.FindByYearMonth(ctx, req.Year, req.Month)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A billing period for this month already exists")
	}

	period, err := billing.NewBillPeriod(req.Year, req.Month)
	if err != nil {
		return nil, err
	}

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Save(ctx, period); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Billing period created",
		zap.String("id", period.ID.String()),
		zap.String("period", period.Label()))

	return ToBillPeriodResponse(period), nil
}

// Patch re-targets a period's (year, month) and lock flag. Moving onto a
// month owned by another period is a conflict.
func (s *BillPeriodService) Patch(ctx context.Context, id uuid.UUID, req PatchBillPeriodRequest) (*BillPeriodResponse, error) {
	period, err := s.periodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	other, err := s.periodRepo.FindByYearMonth(ctx, req.Year, req.Month)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if other != nil && other.ID != period.ID {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Another billing period already owns this month")
	}

	if err := period.Patch(req.Year, req.Month, req.Locked); err != nil {
		return nil, err
	}

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		return s.periodRepo.Save(ctx, period)
	})
	if err != nil {
		return nil, err
	}

	return ToBillPeriodResponse(period), nil
}

// GetByID retrieves one period with its collection counts
func (s *BillPeriodService) GetByID(ctx context.Context, id uuid.UUID) (*BillPeriodResponse, error) {
	period, err := s.periodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToBillPeriodResponse(period), nil
}

// List retrieves periods ordered by period timestamp, newest first
func (s *BillPeriodService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[BillPeriodResponse], error) {
	page, err := s.periodRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]BillPeriodResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *ToBillPeriodResponse(&page.Items[i]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Delete removes a period. Storage cascades to the owned bills and
// rules; the deletion reaction clears them as well.
func (s *BillPeriodService) Delete(ctx context.Context, id uuid.UUID) error {
	period, err := s.periodRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	period.Delete()

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		if err := s.periodRepo.Delete(ctx, id); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.publisher, period)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Billing period deleted",
		zap.String("id", id.String()),
		zap.String("period", period.Label()))
	return nil
}

// Lock marks a period read-only for bills and rules
func (s *BillPeriodService) Lock(ctx context.Context, id uuid.UUID) (*BillPeriodResponse, error) {
	return s.setLocked(ctx, id, true)
}

// Unlock reopens a period for mutation
func (s *BillPeriodService) Unlock(ctx context.Context, id uuid.UUID) (*BillPeriodResponse, error) {
	return s.setLocked(ctx, id, false)
}

func (s *BillPeriodService) setLocked(ctx context.Context, id uuid.UUID, locked bool) (*BillPeriodResponse, error) {
	period, err := s.periodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if locked {
		period.Lock()
	} else {
		period.Unlock()
	}

	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		return s.periodRepo.Save(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return ToBillPeriodResponse(period), nil
}
