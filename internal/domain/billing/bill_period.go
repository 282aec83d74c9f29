package billing

import (
	"fmt"
	"time"

	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BillPeriod is the aggregate root and consistency boundary of one
// calendar month of billing work. It exclusively owns the period's
// original bills, ledger bills and split rules; every mutation of the
// owned collections goes through the aggregate and raises a domain event.
//
// The period timestamp (first day of the month) is the chronological key:
// periods may be created out of order, so "previous period" lookups go by
// timestamp, never by insertion order.
type BillPeriod struct {
	shared.BaseAggregateRoot
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
	Locked    bool      `json:"locked"`

	OriginalBills []OriginalBill `json:"original_bills"`
	LedgerBills   []LedgerBill   `json:"ledger_bills"`
	SplitRules    []SplitRule    `json:"split_rules"`
}

// NewBillPeriod creates a billing period for (year, month) and raises
// BillPeriodCreated. Uniqueness of (year, month) is checked by the
// application service against the repository before calling this.
func NewBillPeriod(year, month int) (*BillPeriod, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	period := &BillPeriod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Year:              year,
		Month:             month,
		Timestamp:         periodTimestamp(year, month),
	}
	period.AddDomainEvent(NewBillPeriodCreatedEvent(period))
	return period, nil
}

// Patch re-targets the period to (year, month) and sets the lock flag.
// The uniqueness check against other periods is the caller's duty.
func (p *BillPeriod) Patch(year, month int, locked bool) error {
	if err := validateYearMonth(year, month); err != nil {
		return err
	}
	p.Year = year
	p.Month = month
	p.Timestamp = periodTimestamp(year, month)
	p.Locked = locked
	p.Touch()
	return nil
}

// Lock flips the lock flag on. Locking has no cascading side effects;
// collaborators refuse mutations of a locked period by policy.
func (p *BillPeriod) Lock() {
	p.Locked = true
	p.Touch()
}

// Unlock flips the lock flag off
func (p *BillPeriod) Unlock() {
	p.Locked = false
	p.Touch()
}

// Delete raises BillPeriodDeleted. Storage-level cascade removes the
// owned collections; the deletion reaction clears them again so in-memory
// stores end up consistent too.
func (p *BillPeriod) Delete() {
	p.AddDomainEvent(NewBillPeriodDeletedEvent(p))
}

// Label returns the YYYY-MM display form of the period
func (p *BillPeriod) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// CreateOriginalBill appends an original bill to the period and raises
// OriginalBillCreated.
func (p *BillPeriod) CreateOriginalBill(bill *OriginalBill) {
	bill.BillPeriodID = p.ID
	p.OriginalBills = append(p.OriginalBills, *bill)
	p.AddDomainEvent(NewOriginalBillCreatedEvent(p, bill.ID))
}

// UpdateOriginalBill replaces an owned original bill by ID and raises
// OriginalBillUpdated. Updating an unknown ID is a not-found error.
func (p *BillPeriod) UpdateOriginalBill(bill *OriginalBill) error {
	for i := range p.OriginalBills {
		if p.OriginalBills[i].ID == bill.ID {
			bill.BillPeriodID = p.ID
			p.OriginalBills[i] = *bill
			p.AddDomainEvent(NewOriginalBillUpdatedEvent(p, bill.ID))
			return nil
		}
	}
	return shared.ErrNotFound
}

// CreateLedgerBill appends a ledger bill to the period and raises
// LedgerBillCreated.
func (p *BillPeriod) CreateLedgerBill(bill *LedgerBill) {
	bill.BillPeriodID = p.ID
	p.LedgerBills = append(p.LedgerBills, *bill)
	p.AddDomainEvent(NewLedgerBillCreatedEvent(p, bill.ID))
}

// UpdateLedgerBill replaces an owned ledger bill by ID and raises
// LedgerBillUpdated.
func (p *BillPeriod) UpdateLedgerBill(bill *LedgerBill) error {
	for i := range p.LedgerBills {
		if p.LedgerBills[i].ID == bill.ID {
			bill.BillPeriodID = p.ID
			p.LedgerBills[i] = *bill
			p.AddDomainEvent(NewLedgerBillUpdatedEvent(p, bill.ID))
			return nil
		}
	}
	return shared.ErrNotFound
}

// CreateSplitRule appends a split rule to the period and raises
// SplitRuleCreated. Rule validation runs in the creation reaction and a
// failure there aborts the whole operation.
func (p *BillPeriod) CreateSplitRule(rule *SplitRule) {
	rule.BillPeriodID = p.ID
	p.SplitRules = append(p.SplitRules, *rule)
	p.AddDomainEvent(NewSplitRuleCreatedEvent(p, rule.ID))
}

// UpdateSplitRule replaces an owned split rule by ID and raises
// SplitRuleUpdated.
func (p *BillPeriod) UpdateSplitRule(rule *SplitRule) error {
	for i := range p.SplitRules {
		if p.SplitRules[i].ID == rule.ID {
			rule.BillPeriodID = p.ID
			p.SplitRules[i] = *rule
			p.AddDomainEvent(NewSplitRuleUpdatedEvent(p, rule.ID))
			return nil
		}
	}
	return shared.ErrNotFound
}

// SetOriginalBills replaces the whole original-bill collection:
// clear-then-recreate, each new bill raising its creation event. This is
// the only mutation path used by bulk import.
func (p *BillPeriod) SetOriginalBills(bills []OriginalBill) {
	p.OriginalBills = nil
	for i := range bills {
		p.CreateOriginalBill(&bills[i])
	}
}

// SetLedgerBills replaces the whole ledger-bill collection. The split
// service uses this full overwrite so the ledger is always an exact
// function of the current original bills and rules.
func (p *BillPeriod) SetLedgerBills(bills []LedgerBill) {
	p.LedgerBills = nil
	for i := range bills {
		p.CreateLedgerBill(&bills[i])
	}
}

// SetSplitRules replaces the whole split-rule collection
func (p *BillPeriod) SetSplitRules(rules []SplitRule) {
	p.SplitRules = nil
	for i := range rules {
		p.CreateSplitRule(&rules[i])
	}
}

// SplitLedgerBill removes one owned ledger bill and inserts the given
// replacements re-parented to the same original bill and period. Used
// for manual correction of a single allocation.
func (p *BillPeriod) SplitLedgerBill(ledgerBillID uuid.UUID, replacements []LedgerBill) error {
	target := p.FindLedgerBill(ledgerBillID)
	if target == nil {
		return shared.ErrNotFound
	}
	parentID := target.ParentID

	kept := make([]LedgerBill, 0, len(p.LedgerBills)-1)
	for i := range p.LedgerBills {
		if p.LedgerBills[i].ID != ledgerBillID {
			kept = append(kept, p.LedgerBills[i])
		}
	}
	p.LedgerBills = kept

	for i := range replacements {
		replacements[i].ParentID = parentID
		p.CreateLedgerBill(&replacements[i])
	}
	return nil
}

// FindOriginalBill returns the owned original bill with the given ID
func (p *BillPeriod) FindOriginalBill(id uuid.UUID) *OriginalBill {
	for i := range p.OriginalBills {
		if p.OriginalBills[i].ID == id {
			return &p.OriginalBills[i]
		}
	}
	return nil
}

// FindLedgerBill returns the owned ledger bill with the given ID
func (p *BillPeriod) FindLedgerBill(id uuid.UUID) *LedgerBill {
	for i := range p.LedgerBills {
		if p.LedgerBills[i].ID == id {
			return &p.LedgerBills[i]
		}
	}
	return nil
}

// FindSplitRule returns the owned split rule with the given ID
func (p *BillPeriod) FindSplitRule(id uuid.UUID) *SplitRule {
	for i := range p.SplitRules {
		if p.SplitRules[i].ID == id {
			return &p.SplitRules[i]
		}
	}
	return nil
}

// AbnormalOriginalBillCount counts original bills carrying an exception
func (p *BillPeriod) AbnormalOriginalBillCount() int {
	count := 0
	for i := range p.OriginalBills {
		if p.OriginalBills[i].HasException() {
			count++
		}
	}
	return count
}

// AbnormalLedgerBillCount counts ledger bills carrying an exception
func (p *BillPeriod) AbnormalLedgerBillCount() int {
	count := 0
	for i := range p.LedgerBills {
		if p.LedgerBills[i].HasException() {
			count++
		}
	}
	return count
}

func validateYearMonth(year, month int) error {
	if year < 2000 || year > 2200 {
		return shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Year %d is out of range", year))
	}
	if month < 1 || month > 12 {
		return shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Month %d is out of range", month))
	}
	return nil
}

func periodTimestamp(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
