package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortField(t *testing.T) {
	allowedFields := map[string]bool{
		"created_at": true,
		"name":       true,
	}

	tests := []struct {
		name         string
		input        string
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", "created_at", "created_at"},
		{"valid field returns field", "name", "created_at", "name"},
		{"invalid field returns default", "invalid_field", "created_at", "created_at"},
		{"sql injection attempt returns default", "name; DROP TABLE users;--", "created_at", "created_at"},
		{"case sensitive - uppercase invalid", "NAME", "created_at", "created_at"},
		{"whitespace around valid field returns field", "  name  ", "created_at", "name"},
		{"empty default with invalid field", "invalid", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, allowedFields, tt.defaultField))
		})
	}
}

func TestProductOrderClause(t *testing.T) {
	tests := []struct {
		sort     string
		expected string
	}{
		{"", "products.created_at DESC"},
		{"newest", "products.created_at DESC"},
		{"oldest", "products.created_at ASC"},
		{"price_asc", "COALESCE(products.discount_price, products.price) ASC"},
		{"price_desc", "COALESCE(products.discount_price, products.price) DESC"},
		{"name", "LOWER(products.name) ASC"},
		{"popular", "products.view_count DESC"},
		{"products.id; DROP TABLE products", "products.created_at DESC"},
	}

	for _, tt := range tests {
		t.Run("sort "+tt.sort, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProductOrderClause(tt.sort))
		})
	}

	assert.Contains(t, ProductOrderClause("rating"), "AVG(reviews.rating)")
}

func TestLikePatterns(t *testing.T) {
	assert.Equal(t, "%campus tee%", likePattern("  Campus TEE "))
	assert.Equal(t, "hood%", prefixPattern("Hood"))
}
