package billing

import (
	"encoding/json"

	"github.com/costledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SplitRule is a period-scoped (matcher, policy) pair controlling how
// matching original bills are allocated. Matcher and Policy are stored
// as raw JSON payloads and decoded into typed value objects by the split
// context at rule-load time.
type SplitRule struct {
	shared.BaseEntity
	BillPeriodID uuid.UUID       `json:"bill_period_id"`
	Matcher      json.RawMessage `json:"matcher"`
	Policy       json.RawMessage `json:"policy"`
	Description  string          `json:"description"`
}

// NewSplitRule creates a split rule with a fresh identity
func NewSplitRule(matcher, policy json.RawMessage, description string) *SplitRule {
	return &SplitRule{
		BaseEntity:  shared.NewBaseEntity(),
		Matcher:     matcher,
		Policy:      policy,
		Description: description,
	}
}

/// CopyForPeriod clones the rule into another period: new identity, same
// matcher and policy payloads. Used by the carry-forward reaction when a
// new period is created without rules.
func (r *SplitRule) CopyForPeriod(periodID uuid.UUID) *SplitRule {
	clone := NewSplitRule(cloneRaw(r.Matcher), cloneRaw(r.Policy), r.Description)
	clone.BillPeriodID = periodID
	return clone
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
