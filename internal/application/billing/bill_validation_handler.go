package billing

import (
	"context"
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BillValidationHandler re-validates bills against the reference catalog
// whenever they are created or updated, annotating the exception field.
// Bill validation is advisory: a violation never fails the write, it
// stays visible on the bill until corrected.
//
// Creation appends to whatever exception content the bill already
// carries (import coercion may have left messages there); an update
// clears the field first and re-validates from scratch.
type BillValidationHandler struct {
	periodRepo billing.BillPeriodRepository
	snapshots  meta.SnapshotProvider
	logger     *zap.Logger
}

// NewBillValidationHandler creates a new handler for bill lifecycle events
func NewBillValidationHandler(
	periodRepo billing.BillPeriodRepository,
	snapshots meta.SnapshotProvider,
	logger *zap.Logger,
) *BillValidationHandler {
	return &BillValidationHandler{
		periodRepo: periodRepo,
		snapshots:  snapshots,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *BillValidationHandler) EventTypes() []string {
	return []string{
		billing.EventTypeOriginalBillCreated,
		billing.EventTypeOriginalBillUpdated,
		billing.EventTypeLedgerBillCreated,
		billing.EventTypeLedgerBillUpdated,
	}
}

// Handle validates the affected bill and persists its exception state
func (h *BillValidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	period, err := h.periodRepo.FindByID(ctx, event.AggregateID())
	if err != nil {
		return err
	}
	snapshot, err := h.snapshots.Snapshot(ctx)
	if err != nil {
		return err
	}

	switch e := event.(type) {
	case *billing.OriginalBillCreatedEvent:
		bill := period.FindOriginalBill(e.BillID)
		if bill == nil {
			return shared.ErrNotFound
		}
		h.annotateOriginal(snapshot, bill, false)
	case *billing.OriginalBillUpdatedEvent:
		bill := period.FindOriginalBill(e.BillID)
		if bill == nil {
			return shared.ErrNotFound
		}
		h.annotateOriginal(snapshot, bill, true)
	case *billing.LedgerBillCreatedEvent:
		bill := period.FindLedgerBill(e.BillID)
		if bill == nil {
			return shared.ErrNotFound
		}
		h.annotateLedger(snapshot, bill, false)
	case *billing.LedgerBillUpdatedEvent:
		bill := period.FindLedgerBill(e.BillID)
		if bill == nil {
			return shared.ErrNotFound
		}
		h.annotateLedger(snapshot, bill, true)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	// Exceptions are written in place, so saving raises no further events.
	return h.periodRepo.Save(ctx, period)
}

func (h *BillValidationHandler) annotateOriginal(snapshot *meta.Snapshot, bill *billing.OriginalBill, clearFirst bool) {
	if clearFirst {
		bill.ClearException()
	}
	violations := billing.NewOriginalBillSpec(snapshot).Check(bill)
	for _, v := range violations {
		bill.AppendException(v.Message)
	}
}

func (h *BillValidationHandler) annotateLedger(snapshot *meta.Snapshot, bill *billing.LedgerBill, clearFirst bool) {
	if clearFirst {
		bill.ClearException()
	}
	violations := billing.NewLedgerBillSpec(snapshot).Check(bill)
	for _, v := range violations {
		bill.AppendException(v.Message)
	}
}
