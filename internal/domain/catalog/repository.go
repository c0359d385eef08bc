package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, keyword string) ([]CategoryWithCount, error)
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
}

// CategoryWithCount is a category with the number of products it holds
type CategoryWithCount struct {
	Category
	ProductCount int64
}

// ProductSort is a supported product ordering
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortOldest    ProductSort = "oldest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortName      ProductSort = "name"
	SortPopular   ProductSort = "popular"
	SortRating    ProductSort = "rating"
	SortRelevance ProductSort = "relevance"
)

// ProductFilter contains filter options for querying products
type ProductFilter struct {
	Keyword    string
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	Statuses   []ProductStatus
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Color      string
	Size       string
	Featured   *bool
	InStock    bool
	MinRating  *float64
	Sort       ProductSort
	shared.Pagination
}

// PublicStatuses are the statuses anonymous shoppers can see
var PublicStatuses = []ProductStatus{ProductStatusAvailable, ProductStatusOutOfStock}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	// Update saves the listing details; stock, status and views are left alone
	Update(ctx context.Context, product *Product) error
	// SetStock replaces the stock level and flips available/out_of_stock to match
	SetStock(ctx context.Context, tenantID, id uuid.UUID, quantity int) error
	// SetStatus writes the status alone; available requires stock
	SetStatus(ctx context.Context, tenantID, id uuid.UUID, status ProductStatus) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Product, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ProductFilter) ([]*Product, int64, error)
	// SuggestNames returns distinct product names starting with prefix
	SuggestNames(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]string, error)
	CountByCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (int64, error)
	IncrementViews(ctx context.Context, tenantID, id uuid.UUID) error
	// IsReferencedByOrders reports whether any order item points at the product
	IsReferencedByOrders(ctx context.Context, tenantID, id uuid.UUID) (bool, error)

	// DecrementStock atomically takes quantity units if enough are in stock.
	// It returns shared.ErrInsufficientStock otherwise.
	DecrementStock(ctx context.Context, tenantID, id uuid.UUID, quantity int) error
	// IncrementStock returns quantity units to stock
	IncrementStock(ctx context.Context, tenantID, id uuid.UUID, quantity int) error
}

// SearchTerm is a search phrase with the number of times it was searched
type SearchTerm struct {
	Term  string
	Count int64
}

// SearchTermStore ranks search phrases per tenant
type SearchTermStore interface {
	Record(ctx context.Context, tenantID uuid.UUID, term string) error
	Top(ctx context.Context, tenantID uuid.UUID, limit int) ([]SearchTerm, error)
	// WithPrefix returns the most searched terms starting with prefix
	WithPrefix(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]string, error)
}
