package persistence

import (
	"strings"
)

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

// likePattern builds a lower-cased contains pattern for LOWER(col) LIKE ?
func likePattern(keyword string) string {
	return "%" + strings.ToLower(strings.TrimSpace(keyword)) + "%"
}

// prefixPattern builds a lower-cased starts-with pattern
func prefixPattern(prefix string) string {
	return strings.ToLower(strings.TrimSpace(prefix)) + "%"
}

// productOrderClauses maps product sorts onto whitelisted ORDER BY clauses
var productOrderClauses = map[string]string{
	"newest":     "products.created_at DESC",
	"oldest":     "products.created_at ASC",
	"price_asc":  "COALESCE(products.discount_price, products.price) ASC",
	"price_desc": "COALESCE(products.discount_price, products.price) DESC",
	"name":       "LOWER(products.name) ASC",
	"popular":    "products.view_count DESC",
	"rating":     "(SELECT COALESCE(AVG(reviews.rating), 0) FROM reviews WHERE reviews.product_id = products.id) DESC, products.created_at DESC",
}

// ProductOrderClause returns the ORDER BY clause for sort, defaulting to newest
func ProductOrderClause(sort string) string {
	key := ValidateSortField(sort, productSortFields, "newest")
	return productOrderClauses[key]
}

var productSortFields = func() map[string]bool {
	m := make(map[string]bool, len(productOrderClauses))
	for k := range productOrderClauses {
		m[k] = true
	}
	return m
}()
