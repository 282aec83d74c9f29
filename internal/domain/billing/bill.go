package billing

import (
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill holds the attributes shared by original and ledger bills.
// ActuallyPaid is the settled amount with two fractional digits; all
// arithmetic on it stays in exact decimal, never float.
type Bill struct {
	shared.BaseEntity
	BillPeriodID    uuid.UUID        `json:"bill_period_id"`
	ContractID      string           `json:"contract_id"`
	ProviderName    string           `json:"provider_name"`
	BillSubjectName string           `json:"bill_subject_name"`
	ServiceType     string           `json:"service_type"`
	ServiceName     string           `json:"service_name"`
	ServiceDetails  string           `json:"service_details"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	BillUnit        string           `json:"bill_unit"`
	StatisticCount  *decimal.Decimal `json:"statistic_count"`
	StatisticUnit   string           `json:"statistic_unit"`
	Total           *decimal.Decimal `json:"total"`
	Discount        *decimal.Decimal `json:"discount"`
	ActuallyPaid    decimal.Decimal  `json:"actually_paid"`
	TypeLevel1      string           `json:"type_level_1"`
	BusinessCode    string           `json:"business_code"`
	BusinessName    string           `json:"business_name"`
	DepartmentName  string           `json:"department_name"`
	Description     string           `json:"description"`
	Exception       string           `json:"exception"`
	Tag1            string           `json:"tag1"`
	Tag2            string           `json:"tag2"`
	Tag3            string           `json:"tag3"`
	Tag4            string           `json:"tag4"`
	Tag5            string           `json:"tag5"`
}

// AppendException appends a human-readable validation message to the
// bill. Messages accumulate; they are only reset by ClearException at the
// start of a validation pass.
func (b *Bill) AppendException(msg string) {
	if msg == "" {
		return
	}
	b.Exception = b.Exception + msg + "\n"
}

// ClearException resets the exception field before a validation pass
func (b *Bill) ClearException() {
	b.Exception = ""
}

// HasException reports whether any validation message is attached
func (b *Bill) HasException() bool {
	return b.Exception != ""
}

// OriginalBill is a raw vendor invoice line as imported into a period
type OriginalBill struct {
	Bill
}

// NewOriginalBill creates an original bill with a fresh identity
func NewOriginalBill() *OriginalBill {
	return &OriginalBill{Bill: Bill{BaseEntity: shared.NewBaseEntity()}}
}

// LedgerBill is an internal allocation record produced by splitting (or
// passing through) an original bill. ParentID references the originating
// original bill within the same period.
type LedgerBill struct {
	Bill
	ParentID uuid.UUID `json:"parent_id"`
}

// NewLedgerBill creates a ledger bill with a fresh identity
func NewLedgerBill() *LedgerBill {
	return &LedgerBill{Bill: Bill{BaseEntity: shared.NewBaseEntity()}}
}

// NewLedgerBillFromOriginal builds a ledger bill carrying all attributes
// of the original bill under a new identity, parented to the original.
// Used both for rule-driven allocations and for unmatched pass-through.
func NewLedgerBillFromOriginal(original *OriginalBill) *LedgerBill {
	ledger := &LedgerBill{
		Bill:     original.Bill,
		ParentID: original.ID,
	}
	ledger.BaseEntity = shared.NewBaseEntity()
	ledger.BillPeriodID = original.BillPeriodID
	return ledger
}
