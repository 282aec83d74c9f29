package shared

import "strings"

// Violation is a single field-level validation finding. Specs are pure:
// they report violations and leave it to the caller whether a given entity
// kind treats them as blocking (split rules) or advisory (bills).
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is an ordered list of validation findings
type Violations []Violation

// OK reports whether no violation was found
func (v Violations) OK() bool {
	return len(v) == 0
}

// Message joins all violation messages, one per line
func (v Violations) Message() string {
	msgs := make([]string, 0, len(v))
	for _, item := range v {
		msgs = append(msgs, item.Message)
	}
	return strings.Join(msgs, "\n")
}

// Append adds a finding for the given field
func (v Violations) Append(field, message string) Violations {
	return append(v, Violation{Field: field, Message: message})
}

// Merge appends all findings of other
func (v Violations) Merge(other Violations) Violations {
	return append(v, other...)
}
