package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/catalog"
	"gorm.io/datatypes"
)

// CategoryModel is the persistence model for the Category domain entity
type CategoryModel struct {
	TenantAggregateModel
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:varchar(500)"`
	ImageURL    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		ImageURL:            m.ImageURL,
	}
}

// FromDomain populates the persistence model from a domain Category entity
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.Description = c.Description
	m.ImageURL = c.ImageURL
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}

// ProductModel is the persistence model for the Product domain entity
type ProductModel struct {
	TenantAggregateModel
	SellerID      uuid.UUID                  `gorm:"type:uuid;not null;index"`
	CategoryID    uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Name          string                     `gorm:"type:varchar(100);not null"`
	Description   string                     `gorm:"type:varchar(1000)"`
	Price         decimal.Decimal            `gorm:"type:decimal(12,2);not null;check:price > 0"`
	DiscountPrice *decimal.Decimal           `gorm:"type:decimal(12,2)"`
	Quantity      int                        `gorm:"not null;default:0;check:quantity >= 0"`
	Status        catalog.ProductStatus      `gorm:"type:varchar(20);not null;default:'available';index"`
	IsFeatured    bool                       `gorm:"not null;default:false"`
	Color         string                     `gorm:"type:varchar(50)"`
	Size          string                     `gorm:"type:varchar(20)"`
	Images        datatypes.JSONSlice[string] `gorm:"not null"`
	ViewCount     int64                      `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity
func (m *ProductModel) ToDomain() *catalog.Product {
	images := []string(m.Images)
	if images == nil {
		images = []string{}
	}
	return &catalog.Product{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SellerID:            m.SellerID,
		CategoryID:          m.CategoryID,
		Name:                m.Name,
		Description:         m.Description,
		Price:               m.Price,
		DiscountPrice:       m.DiscountPrice,
		Quantity:            m.Quantity,
		Status:              m.Status,
		IsFeatured:          m.IsFeatured,
		Color:               m.Color,
		Size:                m.Size,
		Images:              images,
		ViewCount:           m.ViewCount,
	}
}

// FromDomain populates the persistence model from a domain Product entity
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.SellerID = p.SellerID
	m.CategoryID = p.CategoryID
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.DiscountPrice = p.DiscountPrice
	m.Quantity = p.Quantity
	m.Status = p.Status
	m.IsFeatured = p.IsFeatured
	m.Color = p.Color
	m.Size = p.Size
	m.Images = datatypes.NewJSONSlice(p.Images)
	if m.Images == nil {
		m.Images = datatypes.JSONSlice[string]{}
	}
	m.ViewCount = p.ViewCount
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
