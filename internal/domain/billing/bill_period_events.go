package billing

import (
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the billing context
const (
	EventTypeBillPeriodCreated  = "billing.period.created"
	EventTypeBillPeriodDeleted  = "billing.period.deleted"
	EventTypeOriginalBillCreated = "billing.original_bill.created"
	EventTypeOriginalBillUpdated = "billing.original_bill.updated"
	EventTypeLedgerBillCreated   = "billing.ledger_bill.created"
	EventTypeLedgerBillUpdated   = "billing.ledger_bill.updated"
	EventTypeSplitRuleCreated    = "billing.split_rule.created"
	EventTypeSplitRuleUpdated    = "billing.split_rule.updated"
)

const aggregateTypeBillPeriod = "BillPeriod"

// BillPeriodCreatedEvent is raised when a new billing period is created.
// The carry-forward reaction copies the chronologically previous period's
// split rules into the new period.
type BillPeriodCreatedEvent struct {
	shared.BaseDomainEvent
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewBillPeriodCreatedEvent creates a new bill period created event
func NewBillPeriodCreatedEvent(period *BillPeriod) *BillPeriodCreatedEvent {
	return &BillPeriodCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPeriodCreated, aggregateTypeBillPeriod, period.ID),
		Year:            period.Year,
		Month:           period.Month,
	}
}

// BillPeriodDeletedEvent is raised when a billing period is deleted
type BillPeriodDeletedEvent struct {
	shared.BaseDomainEvent
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewBillPeriodDeletedEvent creates a new bill period deleted event
func NewBillPeriodDeletedEvent(period *BillPeriod) *BillPeriodDeletedEvent {
	return &BillPeriodDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPeriodDeleted, aggregateTypeBillPeriod, period.ID),
		Year:            period.Year,
		Month:           period.Month,
	}
}

// OriginalBillCreatedEvent is raised when an original bill is added to a period
type OriginalBillCreatedEvent struct {
	shared.BaseDomainEvent
	BillID uuid.UUID `json:"bill_id"`
}

// NewOriginalBillCreatedEvent creates a new original bill created event
func NewOriginalBillCreatedEvent(period *BillPeriod, billID uuid.UUID) *OriginalBillCreatedEvent {
	return &OriginalBillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOriginalBillCreated, aggregateTypeBillPeriod, period.ID),
		BillID:          billID,
	}
}

// OriginalBillUpdatedEvent is raised when an original bill is replaced
type OriginalBillUpdatedEvent struct {
	shared.BaseDomainEvent
	BillID uuid.UUID `json:"bill_id"`
}

// NewOriginalBillUpdatedEvent creates a new original bill updated event
func NewOriginalBillUpdatedEvent(period *BillPeriod, billID uuid.UUID) *OriginalBillUpdatedEvent {
	return &OriginalBillUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOriginalBillUpdated, aggregateTypeBillPeriod, period.ID),
		BillID:          billID,
	}
}

// LedgerBillCreatedEvent is raised when a ledger bill is added to a period
type LedgerBillCreatedEvent struct {
	shared.BaseDomainEvent
	BillID uuid.UUID `json:"bill_id"`
}

// NewLedgerBillCreatedEvent creates a new ledger bill created event
func NewLedgerBillCreatedEvent(period *BillPeriod, billID uuid.UUID) *LedgerBillCreatedEvent {
	return &LedgerBillCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerBillCreated, aggregateTypeBillPeriod, period.ID),
		BillID:          billID,
	}
}

// LedgerBillUpdatedEvent is raised when a ledger bill is replaced
type LedgerBillUpdatedEvent struct {
	shared.BaseDomainEvent
	BillID uuid.UUID `json:"bill_id"`
}

// NewLedgerBillUpdatedEvent creates a new ledger bill updated event
func NewLedgerBillUpdatedEvent(period *BillPeriod, billID uuid.UUID) *LedgerBillUpdatedEvent {
	return &LedgerBillUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerBillUpdated, aggregateTypeBillPeriod, period.ID),
		BillID:          billID,
	}
}

// SplitRuleCreatedEvent is raised when a split rule is added to a period.
// The validation reaction runs synchronously and its error aborts the
// creating operation.
type SplitRuleCreatedEvent struct {
	shared.BaseDomainEvent
	RuleID uuid.UUID `json:"rule_id"`
}

// NewSplitRuleCreatedEvent creates a new split rule created event
func NewSplitRuleCreatedEvent(period *BillPeriod, ruleID uuid.UUID) *SplitRuleCreatedEvent {
	return &SplitRuleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSplitRuleCreated, aggregateTypeBillPeriod, period.ID),
		RuleID:          ruleID,
	}
}

// SplitRuleUpdatedEvent is raised when a split rule is replaced
type SplitRuleUpdatedEvent struct {
	shared.BaseDomainEvent
	RuleID uuid.UUID `json:"rule_id"`
}

// NewSplitRuleUpdatedEvent creates a new split rule updated event
func NewSplitRuleUpdatedEvent(period *BillPeriod, ruleID uuid.UUID) *SplitRuleUpdatedEvent {
	return &SplitRuleUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSplitRuleUpdated, aggregateTypeBillPeriod, period.ID),
		RuleID:          ruleID,
	}
}
