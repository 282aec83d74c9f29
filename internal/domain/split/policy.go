package split

import (
	"encoding/json"
	"fmt"

	"github.com/costledger/backend/internal/domain/billing"
	"github.com/costledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Sub-policy discriminants
const (
	PolicyTypeFixed        = "fixed"
	PolicyTypeProportional = "proportional"
)

// SubPolicyPayload is the stored form of one sub-policy: a tagged union
// with a type discriminant and variant-specific fields.
type SubPolicyPayload struct {
	Type         string           `json:"type"`
	BusinessCode string           `json:"business_code"`
	Value        *decimal.Decimal `json:"value,omitempty"`
	Percent      *decimal.Decimal `json:"percent,omitempty"`
}

// PolicyPayload is the stored form of a composite policy
type PolicyPayload struct {
	Policies []SubPolicyPayload `json:"policies"`
}

// FixedValuePolicy allocates a constant monetary amount to a business
type FixedValuePolicy struct {
	BusinessCode string
	Value        decimal.Decimal
}

// ProportionalPolicy allocates a share of the proportional base to a
// business. Percent is in [0, 1].
type ProportionalPolicy struct {
	BusinessCode string
	Percent      decimal.Decimal
}

// CompositeSplitPolicy is an ordered set of fixed and proportional
// sub-allocations applied to one original bill. The proportional base is
// the bill's actually-paid amount minus the sum of fixed values.
type CompositeSplitPolicy struct {
	Fixed        []FixedValuePolicy
	Proportional []ProportionalPolicy
}

// ParseCompositePolicy decodes a rule's stored policy payload into typed
// sub-policies. A payload that cannot be decoded, or that carries an
// unknown discriminant or a variant missing its amount field, is a
// configuration error; the caller must abort the whole operation.
func ParseCompositePolicy(raw json.RawMessage) (*CompositeSplitPolicy, error) {
	var payload PolicyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, shared.NewDomainError(shared.ErrConfiguration.Code,
			fmt.Sprintf("Split policy payload cannot be decoded: %v", err))
	}

	policy := &CompositeSplitPolicy{}
	for i, sub := range payload.Policies {
		switch sub.Type {
		case PolicyTypeFixed:
			if sub.Value == nil {
				return nil, shared.NewDomainError(shared.ErrConfiguration.Code,
					fmt.Sprintf("Fixed sub-policy %d has no value", i))
			}
			policy.Fixed = append(policy.Fixed, FixedValuePolicy{
				BusinessCode: sub.BusinessCode,
				Value:        *sub.Value,
			})
		case PolicyTypeProportional:
			if sub.Percent == nil {
				return nil, shared.NewDomainError(shared.ErrConfiguration.Code,
					fmt.Sprintf("Proportional sub-policy %d has no percent", i))
			}
			policy.Proportional = append(policy.Proportional, ProportionalPolicy{
				BusinessCode: sub.BusinessCode,
				Percent:      *sub.Percent,
			})
		default:
			return nil, shared.NewDomainError(shared.ErrConfiguration.Code,
				fmt.Sprintf("Unknown sub-policy type %q", sub.Type))
		}
	}
	return policy, nil
}

// FixedTotal returns the sum of all fixed sub-policy values
func (p *CompositeSplitPolicy) FixedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, fixed := range p.Fixed {
		total = total.Add(fixed.Value)
	}
	return total
}

// PercentSum returns the sum of all proportional sub-policy percentages
func (p *CompositeSplitPolicy) PercentSum() decimal.Decimal {
	sum := decimal.Zero
	for _, prop := range p.Proportional {
		sum = sum.Add(prop.Percent)
	}
	return sum
}

// Split allocates the original bill's actually-paid amount across the
// sub-policies. Every emitted ledger bill copies the original bill's
// attributes, re-parented to it, with only the business code and the
// actually-paid amount replaced. All arithmetic is exact decimal; when
// the percentages sum to 1 the emitted amounts sum exactly to the
// original amount with no rounding redistribution.
func (p *CompositeSplitPolicy) Split(original *billing.OriginalBill) []billing.LedgerBill {
	base := original.ActuallyPaid.Sub(p.FixedTotal())

	out := make([]billing.LedgerBill, 0, len(p.Fixed)+len(p.Proportional))
	for _, fixed := range p.Fixed {
		ledger := billing.NewLedgerBillFromOriginal(original)
		ledger.BusinessCode = fixed.BusinessCode
		ledger.ActuallyPaid = fixed.Value
		out = append(out, *ledger)
	}
	for _, prop := range p.Proportional {
		ledger := billing.NewLedgerBillFromOriginal(original)
		ledger.BusinessCode = prop.BusinessCode
		ledger.ActuallyPaid = base.Mul(prop.Percent)
		out = append(out, *ledger)
	}
	return out
}

// NewFixedPayload builds the stored form of a fixed sub-policy
func NewFixedPayload(businessCode string, value decimal.Decimal) SubPolicyPayload {
	return SubPolicyPayload{Type: PolicyTypeFixed, BusinessCode: businessCode, Value: &value}
}

// NewProportionalPayload builds the stored form of a proportional sub-policy
func NewProportionalPayload(businessCode string, percent decimal.Decimal) SubPolicyPayload {
	return SubPolicyPayload{Type: PolicyTypeProportional, BusinessCode: businessCode, Percent: &percent}
}

// MarshalPolicyPayload encodes sub-policies into a rule's stored policy
// payload. Used by bulk import when materializing simple percentage rows
// into full split rules.
func MarshalPolicyPayload(subs ...SubPolicyPayload) (json.RawMessage, error) {
	return json.Marshal(PolicyPayload{Policies: subs})
}
