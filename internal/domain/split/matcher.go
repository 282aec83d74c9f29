package split

import (
	"encoding/json"

	"github.com/costledger/backend/internal/domain/billing"
)

// BillMatcher is a sparse predicate set selecting which original bills a
// split rule applies to. Nil fields are absent predicates; a set field
// must equal the bill attribute exactly. Specificity is the count of set
// predicates.
type BillMatcher struct {
	ProviderName    *string `json:"provider_name,omitempty"`
	ContractID      *string `json:"contract_id,omitempty"`
	BillSubjectName *string `json:"bill_subject_name,omitempty"`
	ServiceType     *string `json:"service_type,omitempty"`
	ServiceName     *string `json:"service_name,omitempty"`
	ServiceDetails  *string `json:"service_details,omitempty"`
	Tag1            *string `json:"tag1,omitempty"`
	Tag2            *string `json:"tag2,omitempty"`
	Tag3            *string `json:"tag3,omitempty"`
	Tag4            *string `json:"tag4,omitempty"`
	Tag5            *string `json:"tag5,omitempty"`
}

// ParseBillMatcher decodes a rule's stored matcher payload
func ParseBillMatcher(raw json.RawMessage) (*BillMatcher, error) {
	var m BillMatcher
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *BillMatcher) fields() []*string {
	return []*string{
		m.ProviderName, m.ContractID, m.BillSubjectName,
		m.ServiceType, m.ServiceName, m.ServiceDetails,
		m.Tag1, m.Tag2, m.Tag3, m.Tag4, m.Tag5,
	}
}

func billFields(bill *billing.Bill) []string {
	return []string{
		bill.ProviderName, bill.ContractID, bill.BillSubjectName,
		bill.ServiceType, bill.ServiceName, bill.ServiceDetails,
		bill.Tag1, bill.Tag2, bill.Tag3, bill.Tag4, bill.Tag5,
	}
}

// Score returns the matcher's specificity, the count of set predicates
func (m *BillMatcher) Score() int {
	score := 0
	for _, f := range m.fields() {
		if f != nil {
			score++
		}
	}
	return score
}

// Matches reports whether every set predicate equals the bill's
// corresponding attribute.
func (m *BillMatcher) Matches(bill *billing.OriginalBill) bool {
	got := billFields(&bill.Bill)
	for i, want := range m.fields() {
		if want != nil && *want != got[i] {
			return false
		}
	}
	return true
}

// SelectSplitRule picks the rule whose matcher applies to the bill with
// the strictly highest specificity. Ties keep the first-seen rule, so
// selection is deterministic over the stored rule order. A rule whose
// matcher payload cannot be decoded is treated as not matching, and a
// matcher with no predicates never selects: such a bill passes through
// unsplit.
func SelectSplitRule(rules []billing.SplitRule, bill *billing.OriginalBill) *billing.SplitRule {
	var best *billing.SplitRule
	bestScore := 0
	for i := range rules {
		matcher, err := ParseBillMatcher(rules[i].Matcher)
		if err != nil {
			continue
		}
		if !matcher.Matches(bill) {
			continue
		}
		if score := matcher.Score(); score > bestScore {
			best = &rules[i]
			bestScore = score
		}
	}
	return best
}
