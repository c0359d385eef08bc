package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
)

// ProductStatus represents the sale status of a product
type ProductStatus string

const (
	ProductStatusAvailable    ProductStatus = "available"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
	ProductStatusDiscontinued ProductStatus = "discontinued"
	ProductStatusPending      ProductStatus = "pending"
)

// IsValid reports whether s is a known product status
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusAvailable, ProductStatusOutOfStock, ProductStatusDiscontinued, ProductStatusPending:
		return true
	}
	return false
}

// AllProductStatuses lists the statuses in display order
var AllProductStatuses = []ProductStatus{
	ProductStatusAvailable,
	ProductStatusOutOfStock,
	ProductStatusDiscontinued,
	ProductStatusPending,
}

// ErrNoStockToSell rejects marking a product without stock as available
var ErrNoStockToSell = shared.NewDomainError("OUT_OF_STOCK", "A product without stock cannot be available")

// Product is a listing offered by a seller
type Product struct {
	shared.TenantAggregateRoot
	SellerID      uuid.UUID
	CategoryID    uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Quantity      int
	Status        ProductStatus
	IsFeatured    bool
	Color         string
	Size          string
	Images        []string
	ViewCount     int64
}

// ProductDetails holds the seller-editable fields of a product
type ProductDetails struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	CategoryID    uuid.UUID
	Color         string
	Size          string
	Images        []string
}

// NewProduct creates an available product listed by sellerID
func NewProduct(tenantID, sellerID uuid.UUID, details ProductDetails, quantity int) (*Product, error) {
	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SellerID:            sellerID,
		Status:              ProductStatusAvailable,
	}
	if err := p.Update(details); err != nil {
		return nil, err
	}
	if err := p.SetQuantity(quantity); err != nil {
		return nil, err
	}
	p.Version = 1
	return p, nil
}

// Update replaces the editable details after validation
func (p *Product) Update(d ProductDetails) error {
	d.Name = strings.TrimSpace(d.Name)
	if n := utf8.RuneCountInString(d.Name); n < 2 || n > 100 {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name must be between 2 and 100 characters")
	}
	if utf8.RuneCountInString(d.Description) > 1000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Product description cannot exceed 1000 characters")
	}
	if !d.Price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than 0")
	}
	if d.DiscountPrice != nil {
		if d.DiscountPrice.IsNegative() || d.DiscountPrice.GreaterThanOrEqual(d.Price) {
			return shared.NewDomainError("INVALID_DISCOUNT_PRICE", "Discount price must be less than price")
		}
	}
	if d.CategoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Category is required")
	}
	if len(d.Color) > 50 || len(d.Size) > 50 {
		return shared.NewDomainError("INVALID_ATTRIBUTE", "Color and size cannot exceed 50 characters")
	}

	p.Name = d.Name
	p.Description = strings.TrimSpace(d.Description)
	p.Price = d.Price
	p.DiscountPrice = d.DiscountPrice
	p.CategoryID = d.CategoryID
	p.Color = strings.TrimSpace(d.Color)
	p.Size = strings.TrimSpace(d.Size)
	if d.Images != nil {
		p.Images = d.Images
	}
	p.Touch()
	return nil
}

// EffectivePrice is the price a buyer pays
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// SetQuantity sets the stock level and keeps the status consistent with it
func (p *Product) SetQuantity(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	p.Quantity = quantity
	p.syncStockStatus()
	p.Touch()
	return nil
}

// SetStatus changes the status explicitly. Marking a product without stock
// as available is rejected.
func (p *Product) SetStatus(status ProductStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Status must be one of available, out_of_stock, discontinued, pending")
	}
	if status == ProductStatusAvailable && p.Quantity == 0 {
		return ErrNoStockToSell
	}
	p.Status = status
	p.Touch()
	return nil
}

// SetFeatured toggles the featured flag
func (p *Product) SetFeatured(featured bool) {
	p.IsFeatured = featured
	p.Touch()
}

// AddImages appends image URLs
func (p *Product) AddImages(urls ...string) {
	p.Images = append(p.Images, urls...)
	p.Touch()
}

// IsAvailable reports whether the product can be bought
func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusAvailable
}

// IsOwnedBy reports whether userID is the listing seller
func (p *Product) IsOwnedBy(userID uuid.UUID) bool {
	return p.SellerID == userID
}

// CanPurchase checks status and stock for a requested quantity
func (p *Product) CanPurchase(quantity int) error {
	if !p.IsAvailable() {
		return shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available")
	}
	if quantity > p.Quantity {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	}
	return nil
}

// StockStatusFor returns the status a product with the given stock and
// current status should have. Only available and out_of_stock flip.
func StockStatusFor(current ProductStatus, quantity int) ProductStatus {
	switch {
	case current == ProductStatusAvailable && quantity == 0:
		return ProductStatusOutOfStock
	case current == ProductStatusOutOfStock && quantity > 0:
		return ProductStatusAvailable
	}
	return current
}

func (p *Product) syncStockStatus() {
	p.Status = StockStatusFor(p.Status, p.Quantity)
}
