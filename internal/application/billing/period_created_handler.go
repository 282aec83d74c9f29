package billing

import (
	"context"
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PeriodCreatedHandler carries the previous period's split rules into a
// freshly created period. Rules are copied by content under new
// identities; a new period that was created with rules of its own is
// left alone.
type PeriodCreatedHandler struct {
	periodRepo billing.BillPeriodRepository
	logger     *zap.Logger
}

// NewPeriodCreatedHandler creates a new handler for period created events
func NewPeriodCreatedHandler(periodRepo billing.BillPeriodRepository, logger *zap.Logger) *PeriodCreatedHandler {
	return &PeriodCreatedHandler{
		periodRepo: periodRepo,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PeriodCreatedHandler) EventTypes() []string {
	return []string{billing.EventTypeBillPeriodCreated}
}

// Handle copies rules forward on period creation
func (h *PeriodCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*billing.BillPeriodCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			billing.EventTypeBillPeriodCreated, event.EventType())
	}

	period, err := h.periodRepo.FindByID(ctx, created.AggregateID())
	if err != nil {
		return err
	}
	if len(period.SplitRules) > 0 {
		return nil
	}

	previous, err := h.periodRepo.FindPrevious(ctx, period.Timestamp)
	if err != nil {
		return err
	}
	if previous == nil || len(previous.SplitRules) == 0 {
		return nil
	}

	// Carried rules were already validated in the source period, so they
	// are appended without raising creation events.
	for i := range previous.SplitRules {
		period.SplitRules = append(period.SplitRules, *previous.SplitRules[i].CopyForPeriod(period.ID))
	}
	if err := h.periodRepo.Save(ctx, period); err != nil {
		return err
	}

	h.logger.Info("Split rules carried forward",
		zap.String("from", previous.Label()),
		zap.String("to", period.Label()),
		zap.Int("rules", len(previous.SplitRules)))
	return nil
}
