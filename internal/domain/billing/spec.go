package billing

import (
	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
)

// OriginalBillSpec validates an original bill against the reference
// catalog. Violations are advisory for bills: the caller annotates the
// bill's exception field instead of rejecting the write.
type OriginalBillSpec struct {
	snapshot *meta.Snapshot
}

// NewOriginalBillSpec creates a spec bound to one catalog snapshot
func NewOriginalBillSpec(snapshot *meta.Snapshot) *OriginalBillSpec {
	return &OriginalBillSpec{snapshot: snapshot}
}

// Check returns the catalog violations of the bill
func (s *OriginalBillSpec) Check(bill *OriginalBill) shared.Violations {
	var v shared.Violations
	if ok, msg := s.snapshot.IsProviderValid(bill.ProviderName); !ok {
		v = v.Append("provider_name", msg)
	}
	if ok, msg := s.snapshot.IsBillSubjectValid(bill.BillSubjectName); !ok {
		v = v.Append("bill_subject_name", msg)
	}
	if ok, msg := s.snapshot.IsBusinessValid(bill.BusinessCode); !ok {
		v = v.Append("business_code", msg)
	}
	return v
}

// LedgerBillSpec validates a ledger bill against the reference catalog.
// Ledger bills are allocation records, so the business code is mandatory
// and must resolve.
type LedgerBillSpec struct {
	snapshot *meta.Snapshot
}

// NewLedgerBillSpec creates a spec bound to one catalog snapshot
func NewLedgerBillSpec(snapshot *meta.Snapshot) *LedgerBillSpec {
	return &LedgerBillSpec{snapshot: snapshot}
}

// Check returns the catalog violations of the bill
func (s *LedgerBillSpec) Check(bill *LedgerBill) shared.Violations {
	var v shared.Violations
	if ok, msg := s.snapshot.IsBusinessValidStrict(bill.BusinessCode); !ok {
		v = v.Append("business_code", msg)
	}
	return v
}
