package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
)

// CategoryDTO represents a category with its product count
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url,omitempty"`
	ProductCount int64     `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CategoryInput creates or edits a category. Nil fields are left unchanged on update.
type CategoryInput struct {
	Name        *string
	Description *string
	ImageURL    *string
}

// ProductDTO represents a product listing
type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	SellerID       uuid.UUID        `json:"seller_id"`
	CategoryID     uuid.UUID        `json:"category_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Quantity       int              `json:"quantity"`
	Status         string           `json:"status"`
	IsFeatured     bool             `json:"is_featured"`
	Color          string           `json:"color,omitempty"`
	Size           string           `json:"size,omitempty"`
	Images         []string         `json:"images"`
	ViewCount      int64            `json:"view_count"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateProductInput contains input for listing a product
type CreateProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Quantity      int
	CategoryID    uuid.UUID
	Color         string
	Size          string
	Images        []string
}

// UpdateProductInput edits a product. Nil fields are left unchanged.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	DiscountPrice *decimal.Decimal
	ClearDiscount bool
	Quantity      *int
	CategoryID    *uuid.UUID
	Color         *string
	Size          *string
	Images        []string
}

// ListProductsInput filters the product list and the search endpoints
type ListProductsInput struct {
	Keyword    string
	CategoryID *uuid.UUID
	SellerID   *uuid.UUID
	Status     *catalog.ProductStatus
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Color      string
	Size       string
	Featured   *bool
	InStock    bool
	MinRating  *float64
	Sort       string
	shared.Pagination
}

// ToCategoryDTO converts a category with its count
func ToCategoryDTO(c *catalog.Category, count int64) CategoryDTO {
	return CategoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ImageURL:     c.ImageURL,
		ProductCount: count,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToProductDTO converts a domain product
func ToProductDTO(p *catalog.Product) ProductDTO {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:             p.ID,
		SellerID:       p.SellerID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: p.EffectivePrice(),
		Quantity:       p.Quantity,
		Status:         string(p.Status),
		IsFeatured:     p.IsFeatured,
		Color:          p.Color,
		Size:           p.Size,
		Images:         images,
		ViewCount:      p.ViewCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
