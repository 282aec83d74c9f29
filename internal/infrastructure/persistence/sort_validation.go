package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BillPeriodSortFields contains allowed sort fields for billing periods
var BillPeriodSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"year":       true,
	"month":      true,
	"timestamp":  true,
	"locked":     true,
}

// BillSortFields contains allowed sort fields for bills
var BillSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"contract_id":       true,
	"provider_name":     true,
	"bill_subject_name": true,
	"service_type":      true,
	"service_name":      true,
	"business_code":     true,
	"business_name":     true,
	"department_name":   true,
	"total":             true,
	"actually_paid":     true,
}

// SplitRuleSortFields contains allowed sort fields for split rules
var SplitRuleSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"description": true,
}

// MetaSortFields contains allowed sort fields for catalog entries
var MetaSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"kind":       true,
	"name":       true,
	"full_name":  true,
	"code":       true,
}
