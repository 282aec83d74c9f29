package billing

import (
	"context"
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PeriodDeletedHandler clears the owned collections of a deleted period.
// Storage-level cascade already removes them; this reaction is a second
// layer so the collections are gone even when the storage schema lacks
// the cascade.
type PeriodDeletedHandler struct {
	originalRepo billing.OriginalBillRepository
	ledgerRepo   billing.LedgerBillRepository
	ruleRepo     billing.SplitRuleRepository
	logger       *zap.Logger
}

// NewPeriodDeletedHandler creates a new handler for period deleted events
func NewPeriodDeletedHandler(
	originalRepo billing.OriginalBillRepository,
	ledgerRepo billing.LedgerBillRepository,
	ruleRepo billing.SplitRuleRepository,
	logger *zap.Logger,
) *PeriodDeletedHandler {
	return &PeriodDeletedHandler{
		originalRepo: originalRepo,
		ledgerRepo:   ledgerRepo,
		ruleRepo:     ruleRepo,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PeriodDeletedHandler) EventTypes() []string {
	return []string{billing.EventTypeBillPeriodDeleted}
}

// Handle removes all bills and rules of the deleted period
func (h *PeriodDeletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	deleted, ok := event.(*billing.BillPeriodDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			billing.EventTypeBillPeriodDeleted, event.EventType())
	}

	periodID := deleted.AggregateID()
	if err := h.originalRepo.DeleteByPeriod(ctx, periodID); err != nil {
		return err
	}
	if err := h.ledgerRepo.DeleteByPeriod(ctx, periodID); err != nil {
		return err
	}
	if err := h.ruleRepo.DeleteByPeriod(ctx, periodID); err != nil {
		return err
	}

	h.logger.Info("Billing period collections cleared",
		zap.String("period_id", periodID.String()))
	return nil
}
