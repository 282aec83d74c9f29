package meta

import (
	"fmt"
	"strings"
)

// maxExamples limits how many valid values a violation message cites
const maxExamples = 3

// Snapshot is a point-in-time view of the reference catalog used for
// validation. It is immutable once built; a validation pass takes one
// snapshot so every check within the pass sees the same catalog.
type Snapshot struct {
	businesses   []string // ledger codes of business entries
	billSubjects []string
	providers    []string
}

// NewSnapshot builds a snapshot from the three catalogs
func NewSnapshot(businesses, billSubjects, providers []string) *Snapshot {
	return &Snapshot{
		businesses:   businesses,
		billSubjects: billSubjects,
		providers:    providers,
	}
}

// Businesses returns the known business ledger codes
func (s *Snapshot) Businesses() []string {
	return s.businesses
}

// IsBusinessValid checks a business ledger code against the catalog.
// An empty code is vacuously valid: bills without an allocation yet are
// flagged by other means, not by the catalog check.
func (s *Snapshot) IsBusinessValid(code string) (bool, string) {
	if code == "" {
		return true, ""
	}
	if contains(s.businesses, code) {
		return true, ""
	}
	return false, fmt.Sprintf("unknown business code %q, known values: %s", code, examples(s.businesses))
}

// IsBusinessValidStrict checks a business ledger code, rejecting empty
// values. Ledger bills must always carry an allocation target.
func (s *Snapshot) IsBusinessValidStrict(code string) (bool, string) {
	if contains(s.businesses, code) {
		return true, ""
	}
	return false, fmt.Sprintf("unknown business code %q, known values: %s", code, examples(s.businesses))
}

// IsBillSubjectValid checks a billing subject name against the catalog
func (s *Snapshot) IsBillSubjectValid(name string) (bool, string) {
	if contains(s.billSubjects, name) {
		return true, ""
	}
	return false, fmt.Sprintf("unknown bill subject %q, known values: %s", name, examples(s.billSubjects))
}

// IsProviderValid checks a provider name against the catalog
func (s *Snapshot) IsProviderValid(name string) (bool, string) {
	if contains(s.providers, name) {
		return true, ""
	}
	return false, fmt.Sprintf("unknown provider %q, known values: %s", name, examples(s.providers))
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}

func examples(values []string) string {
	if len(values) == 0 {
		return "(none configured)"
	}
	n := len(values)
	if n > maxExamples {
		n = maxExamples
	}
	return strings.Join(values[:n], ", ") + "..."
}
