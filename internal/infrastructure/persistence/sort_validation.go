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
	trimmed := strings.ToLower(strings.TrimSpace(sortField))
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a safe ORDER BY clause with id as tie breaker
func orderClause(sortField string, allowedFields map[string]bool, defaultField, sortOrder string) string {
	return ValidateSortField(sortField, allowedFields, defaultField) + " " + ValidateSortOrder(sortOrder) + ", id ASC"
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"full_name":     true,
	"status":        true,
	"last_login_at": true,
}

// SaleSortFields contains allowed sort fields for sales
var SaleSortFields = map[string]bool{
	"created_at":            true,
	"updated_at":            true,
	"contract_no":           true,
	"customer_name":         true,
	"block_no":              true,
	"apartment_no":          true,
	"sale_type":             true,
	"sale_date":             true,
	"kapora_date":           true,
	"contract_date":         true,
	"list_price":            true,
	"discounted_list_price": true,
	"activity_sale_price":   true,
	"prim_amount":           true,
	"prim_status":           true,
	"status":                true,
}
