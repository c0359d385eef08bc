package handler

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appcatalog "github.com/unimerch/backend/internal/application/catalog"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/shared"
)

// CategoryRequest creates or edits a category. Omitted fields are kept on update.
type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=100" example:"Hoodies"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	ImageURL    *string `json:"image_url" binding:"omitempty,max=500"`
}

func (r CategoryRequest) input() appcatalog.CategoryInput {
	return appcatalog.CategoryInput{Name: r.Name, Description: r.Description, ImageURL: r.ImageURL}
}

// CreateProductRequest lists a product
type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required,min=2,max=100" example:"University Hoodie"`
	Description   string           `json:"description" binding:"omitempty,max=1000"`
	Price         decimal.Decimal  `json:"price" swaggertype:"string" example:"350000"`
	DiscountPrice *decimal.Decimal `json:"discount_price" swaggertype:"string"`
	Quantity      int              `json:"quantity" binding:"min=0"`
	CategoryID    uuid.UUID        `json:"category_id" binding:"required"`
	Color         string           `json:"color" binding:"omitempty,max=50"`
	Size          string           `json:"size" binding:"omitempty,max=20"`
	Images        []string         `json:"images" binding:"omitempty,max=10"`
}

// UpdateProductRequest edits a product. Omitted fields are kept.
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=2,max=100"`
	Description   *string          `json:"description" binding:"omitempty,max=1000"`
	Price         *decimal.Decimal `json:"price" swaggertype:"string"`
	DiscountPrice *decimal.Decimal `json:"discount_price" swaggertype:"string"`
	ClearDiscount bool             `json:"clear_discount"`
	Quantity      *int             `json:"quantity" binding:"omitempty,min=0"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	Color         *string          `json:"color" binding:"omitempty,max=50"`
	Size          *string          `json:"size" binding:"omitempty,max=20"`
	Images        []string         `json:"images" binding:"omitempty,max=10"`
}

// ProductStatusRequest changes a product status
type ProductStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available out_of_stock discontinued pending"`
}

// ProductQuantityRequest sets the stock level
type ProductQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// ProductFeaturedRequest toggles the featured flag
type ProductFeaturedRequest struct {
	IsFeatured *bool `json:"is_featured" binding:"required"`
}

// ProductListQuery holds the product list and search filters
type ProductListQuery struct {
	Q          string   `form:"q" binding:"omitempty,max=100"`
	Search     string   `form:"search" binding:"omitempty,max=100"`
	CategoryID string   `form:"category_id" binding:"omitempty,uuid"`
	SellerID   string   `form:"seller_id" binding:"omitempty,uuid"`
	Status     string   `form:"status" binding:"omitempty,oneof=available out_of_stock discontinued pending"`
	MinPrice   string   `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice   string   `form:"max_price" binding:"omitempty,numeric"`
	MinRating  *float64 `form:"min_rating" binding:"omitempty,min=0,max=5"`
	InStock    bool     `form:"in_stock"`
	Featured   *bool    `form:"featured"`
	Color      string   `form:"color" binding:"omitempty,max=50"`
	Size       string   `form:"size" binding:"omitempty,max=20"`
	Sort       string   `form:"sort"`
	Page       int      `form:"page" binding:"omitempty,min=1"`
	Limit      int      `form:"limit" binding:"omitempty,min=1"`
}

func (q ProductListQuery) input() (appcatalog.ListProductsInput, error) {
	keyword := q.Q
	if keyword == "" {
		keyword = q.Search
	}
	input := appcatalog.ListProductsInput{
		Keyword:    keyword,
		Color:      q.Color,
		Size:       q.Size,
		Featured:   q.Featured,
		InStock:    q.InStock,
		MinRating:  q.MinRating,
		Sort:       q.Sort,
		Pagination: shared.NewPagination(q.Page, q.Limit),
	}
	if q.CategoryID != "" {
		id := uuid.MustParse(q.CategoryID)
		input.CategoryID = &id
	}
	if q.SellerID != "" {
		id := uuid.MustParse(q.SellerID)
		input.SellerID = &id
	}
	if q.Status != "" {
		status := catalog.ProductStatus(q.Status)
		input.Status = &status
	}
	for _, bound := range []struct {
		raw string
		dst **decimal.Decimal
	}{{q.MinPrice, &input.MinPrice}, {q.MaxPrice, &input.MaxPrice}} {
		if bound.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(bound.raw)
		if err != nil || d.IsNegative() {
			return input, shared.NewDomainError("INVALID_PRICE", "Price filters must be non-negative numbers")
		}
		*bound.dst = &d
	}
	return input, nil
}
