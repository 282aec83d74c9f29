package meta

import (
	"github.com/costledger/backend/internal/domain/shared"
)

// Kind discriminates the reference catalog a Meta entry belongs to
type Kind string

const (
	KindBusiness    Kind = "BUSINESS"     // internal cost-center business line
	KindBillSubject Kind = "BILL_SUBJECT" // billing subject (the contracting entity)
	KindProvider    Kind = "PROVIDER"     // external vendor
)

// IsValid checks if the kind is a known Kind
func (k Kind) IsValid() bool {
	switch k {
	case KindBusiness, KindBillSubject, KindProvider:
		return true
	}
	return false
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Meta is one entry of the reference catalog used for bill and rule
// validation. Business entries additionally carry a ledger code under
// which split allocations are booked.
type Meta struct {
	shared.BaseEntity
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Code     string `json:"code"` // set for KindBusiness entries only
}

// NewMeta creates a new reference catalog entry
func NewMeta(kind Kind, name, fullName, code string) (*Meta, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_META_KIND", "Meta kind is not valid")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_META_NAME", "Meta name cannot be empty")
	}
	if kind == KindBusiness && code == "" {
		return nil, shared.NewDomainError("INVALID_META_CODE", "Business entries require a ledger code")
	}
	return &Meta{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		Name:       name,
		FullName:   fullName,
		Code:       code,
	}, nil
}

// Rename updates the display names of the entry
func (m *Meta) Rename(name, fullName string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_META_NAME", "Meta name cannot be empty")
	}
	m.Name = name
	m.FullName = fullName
	return nil
}
