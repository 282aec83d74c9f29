package billing

import (
	"context"
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/costledger/backend/internal/domain/split"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SplitRuleValidationHandler validates a split rule's matcher and policy
// when the rule is created or updated. Unlike bill validation this is
// blocking: the returned error propagates through the event bus and
// aborts the save inside its transaction, so a bad rule is rejected
// before it can break an allocation later.
type SplitRuleValidationHandler struct {
	periodRepo billing.BillPeriodRepository
	snapshots  meta.SnapshotProvider
	logger     *zap.Logger
}

// NewSplitRuleValidationHandler creates a new handler for rule lifecycle events
func NewSplitRuleValidationHandler(
	periodRepo billing.BillPeriodRepository,
	snapshots meta.SnapshotProvider,
	logger *zap.Logger,
) *SplitRuleValidationHandler {
	return &SplitRuleValidationHandler{
		periodRepo: periodRepo,
		snapshots:  snapshots,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SplitRuleValidationHandler) EventTypes() []string {
	return []string{
		billing.EventTypeSplitRuleCreated,
		billing.EventTypeSplitRuleUpdated,
	}
}

// Handle validates the affected rule and fails the operation on violation
func (h *SplitRuleValidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var ruleID uuid.UUID
	switch e := event.(type) {
	case *billing.SplitRuleCreatedEvent:
		ruleID = e.RuleID
	case *billing.SplitRuleUpdatedEvent:
		ruleID = e.RuleID
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	period, err := h.periodRepo.FindByID(ctx, event.AggregateID())
	if err != nil {
		return err
	}
	rule := period.FindSplitRule(ruleID)
	if rule == nil {
		return shared.ErrNotFound
	}

	snapshot, err := h.snapshots.Snapshot(ctx)
	if err != nil {
		return err
	}

	if violations := split.NewSplitRuleSpec(snapshot).Check(rule); !violations.OK() {
		h.logger.Warn("Split rule rejected",
			zap.String("rule_id", ruleID.String()),
			zap.String("period", period.Label()),
			zap.String("violations", violations.Message()))
		return shared.NewDomainError(shared.ErrValidation.Code, violations.Message())
	}
	return nil
}
