package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
)

// MaxCartLineQuantity bounds a single cart line
const MaxCartLineQuantity = 1000

// CartItem is one product line in a shopper's cart.
// A user has at most one line per product.
type CartItem struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// NewCartItem creates a cart line
func NewCartItem(tenantID, userID, productID uuid.UUID, quantity int) (*CartItem, error) {
	if err := validateCartQuantity(quantity); err != nil {
		return nil, err
	}
	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
	}, nil
}

// SetQuantity replaces the line quantity
func (c *CartItem) SetQuantity(quantity int) error {
	if err := validateCartQuantity(quantity); err != nil {
		return err
	}
	c.Quantity = quantity
	return nil
}

func validateCartQuantity(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if quantity > MaxCartLineQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity is too large")
	}
	return nil
}

// CartLine is a cart item joined with its product, if the product still exists
type CartLine struct {
	Item    CartItem
	Product *catalog.Product
}

// Subtotal is the effective price times quantity, zero for missing products
func (l CartLine) Subtotal() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

// Problem explains why a line cannot be checked out. Empty means the line is valid.
func (l CartLine) Problem() string {
	switch {
	case l.Product == nil:
		return InvalidReasonNotFound
	case !l.Product.IsAvailable():
		return InvalidReasonUnavailable
	case l.Item.Quantity > l.Product.Quantity:
		return InvalidReasonInsufficientStock
	}
	return ""
}

const (
	InvalidReasonNotFound          = "product_not_found"
	InvalidReasonUnavailable       = "product_unavailable"
	InvalidReasonInsufficientStock = "insufficient_stock"
)

// CartSummary aggregates a set of cart lines
type CartSummary struct {
	TotalItems  int
	ItemCount   int
	TotalAmount decimal.Decimal
}

// Summarize totals the given lines. The total amount always equals the sum of
// the line subtotals.
func Summarize(lines []CartLine) CartSummary {
	s := CartSummary{TotalAmount: decimal.Zero}
	for _, l := range lines {
		s.TotalItems += l.Item.Quantity
		s.ItemCount++
		s.TotalAmount = s.TotalAmount.Add(l.Subtotal())
	}
	return s
}
