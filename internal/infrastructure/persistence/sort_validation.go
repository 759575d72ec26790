package persistence

import (
	"strings"

	"github.com/safarhub/backend/internal/domain/shared"
	"gorm.io/gorm"
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

// VendorSortFields contains allowed sort fields for vendors
var VendorSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"name":               true,
	"email":              true,
	"is_vendor_approved": true,
	"is_vendor_locked":   true,
	"approved_at":        true,
}

// ListingSortFields contains allowed sort fields for stays, tours, adventures and vehicle rentals
var ListingSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"location":   true,
	"price":      true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"base_price": true,
	"stock":      true,
}

// CouponSortFields contains allowed sort fields for coupons
var CouponSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"code":        true,
	"start_date":  true,
	"expiry_date": true,
	"usage_count": true,
}

// SettlementSortFields contains allowed sort fields for settlements
var SettlementSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"scheduled_date": true,
	"amount_due":     true,
	"amount_paid":    true,
	"status":         true,
	"paid_at":        true,
}

// TransactionSortFields contains allowed sort fields for payout transactions
var TransactionSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"scheduled_date": true,
	"amount":         true,
	"status":         true,
	"completed_at":   true,
}

// ContactMessageSortFields contains allowed sort fields for the support inbox
var ContactMessageSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"status":     true,
	"email":      true,
	"replied_at": true,
}

// applyOrder orders by a whitelisted field, falling back to defaultField DESC
func applyOrder(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	return query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
}

// applyPage limits the query to the filter's page
func applyPage(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
