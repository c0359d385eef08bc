package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/shared"
)

// Category groups products in the catalog
type Category struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	ImageURL    string
}

// NewCategory creates a new category
func NewCategory(tenantID uuid.UUID, name, description string) (*Category, error) {
	c := &Category{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := c.Update(name, description); err != nil {
		return nil, err
	}
	c.Version = 1
	return c, nil
}

// Update changes the name and description
func (c *Category) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name must be between 2 and 100 characters")
	}
	if utf8.RuneCountInString(description) > 500 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Category description cannot exceed 500 characters")
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.Touch()
	return nil
}

// SetImage sets the category image URL
func (c *Category) SetImage(url string) {
	c.ImageURL = url
	c.Touch()
}
