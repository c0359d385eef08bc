package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	Save(ctx context.Context, item *CartItem) error
	// Merge inserts item or adds its quantity to the user's existing line for
	// the product, and returns the stored line. It fails with
	// shared.ErrInsufficientStock, changing nothing, when the merged quantity
	// would exceed limit.
	Merge(ctx context.Context, item *CartItem, limit int) (*CartItem, error)
	FindByID(ctx context.Context, tenantID, userID, id uuid.UUID) (*CartItem, error)
	FindByProduct(ctx context.Context, tenantID, userID, productID uuid.UUID) (*CartItem, error)
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*CartItem, error)
	Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error
	Clear(ctx context.Context, tenantID, userID uuid.UUID) error
	// RemoveProducts drops the user's lines for the given products
	RemoveProducts(ctx context.Context, tenantID, userID uuid.UUID, productIDs []uuid.UUID) error
}

// OrderFilter contains filter options for querying orders
type OrderFilter struct {
	UserID   *uuid.UUID
	SellerID *uuid.UUID
	Status   *OrderStatus
	shared.Pagination
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Create inserts the order together with its items
	Create(ctx context.Context, order *Order) error
	// Update saves header fields of an existing order
	Update(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]*Order, int64, error)
	// HasDeliveredProduct reports whether the user received the product in any order
	HasDeliveredProduct(ctx context.Context, tenantID, userID, productID uuid.UUID) (bool, error)
	// StatusSummary counts orders and sums totals per status, optionally for one buyer
	StatusSummary(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID) ([]StatusTotal, error)
}

// StatusTotal is the number and value of orders in one status
type StatusTotal struct {
	Status OrderStatus
	Count  int64
	Amount decimal.Decimal
}
