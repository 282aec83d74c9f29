package split

import (
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/meta"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SplitRuleSpec validates a split rule's matcher and composite policy
// against the reference catalog and the numeric constraints. Violations
// are blocking for rules: a failing rule is rejected synchronously at
// save time, before a bad allocation can happen at split time.
type SplitRuleSpec struct {
	snapshot *meta.Snapshot
}

// NewSplitRuleSpec creates a spec bound to one catalog snapshot
func NewSplitRuleSpec(snapshot *meta.Snapshot) *SplitRuleSpec {
	return &SplitRuleSpec{snapshot: snapshot}
}

// Check returns all violations of the rule's matcher and policy
func (s *SplitRuleSpec) Check(rule *billing.SplitRule) shared.Violations {
	var v shared.Violations
	v = v.Merge(s.checkMatcher(rule))
	v = v.Merge(s.checkPolicy(rule))
	return v
}

// checkMatcher validates the catalog-backed matcher predicates. Absent
// predicates are vacuously valid; a payload that cannot be decoded is a
// violation in itself.
func (s *SplitRuleSpec) checkMatcher(rule *billing.SplitRule) shared.Violations {
	var v shared.Violations
	matcher, err := ParseBillMatcher(rule.Matcher)
	if err != nil {
		return v.Append("matcher", fmt.Sprintf("matcher payload cannot be decoded: %v", err))
	}
	if matcher.ProviderName != nil {
		if ok, msg := s.snapshot.IsProviderValid(*matcher.ProviderName); !ok {
			v = v.Append("matcher.provider_name", msg)
		}
	}
	if matcher.BillSubjectName != nil {
		if ok, msg := s.snapshot.IsBillSubjectValid(*matcher.BillSubjectName); !ok {
			v = v.Append("matcher.bill_subject_name", msg)
		}
	}
	return v
}

// checkPolicy validates every sub-policy's target business and amount,
// and the exact-decimal percent sum when proportional entries exist.
func (s *SplitRuleSpec) checkPolicy(rule *billing.SplitRule) shared.Violations {
	var v shared.Violations
	policy, err := ParseCompositePolicy(rule.Policy)
	if err != nil {
		return v.Append("policy", err.Error())
	}

	for i, fixed := range policy.Fixed {
		field := fmt.Sprintf("policy.fixed[%d]", i)
		if ok, msg := s.snapshot.IsBusinessValidStrict(fixed.BusinessCode); !ok {
			v = v.Append(field+".business_code", msg)
		}
		if !fixed.Value.IsPositive() {
			v = v.Append(field+".value", fmt.Sprintf("fixed value must be positive, got %s", fixed.Value))
		}
	}
	for i, prop := range policy.Proportional {
		field := fmt.Sprintf("policy.proportional[%d]", i)
		if ok, msg := s.snapshot.IsBusinessValidStrict(prop.BusinessCode); !ok {
			v = v.Append(field+".business_code", msg)
		}
		if prop.Percent.IsNegative() || prop.Percent.GreaterThan(decimal.NewFromInt(1)) {
			v = v.Append(field+".percent", fmt.Sprintf("percent must be within [0, 1], got %s", prop.Percent))
		}
	}
	if len(policy.Proportional) > 0 {
		if sum := policy.PercentSum(); !sum.Equal(decimal.NewFromInt(1)) {
			v = v.Append("policy.proportional", fmt.Sprintf("percent sum not 1, got %s", sum))
		}
	}
	return v
}
