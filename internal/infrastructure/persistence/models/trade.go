package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/trade"
)

// CartItemModel is the persistence model for a cart line.
// (tenant_id, user_id, product_id) is unique.
type CartItemModel struct {
	BaseModel
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity  int       `gorm:"not null;check:quantity > 0"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain CartItem
func (m *CartItemModel) ToDomain() *trade.CartItem {
	return &trade.CartItem{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain CartItem
func (m *CartItemModel) FromDomain(c *trade.CartItem) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.UserID = c.UserID
	m.ProductID = c.ProductID
	m.Quantity = c.Quantity
}

// CartItemModelFromDomain creates a new persistence model from a domain CartItem
func CartItemModelFromDomain(c *trade.CartItem) *CartItemModel {
	m := &CartItemModel{}
	m.FromDomain(c)
	return m
}

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	TenantAggregateModel
	OrderNumber     string              `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Status          trade.OrderStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingAddress string              `gorm:"type:varchar(500);not null"`
	PaymentMethod   trade.PaymentMethod `gorm:"type:varchar(30);not null"`
	Notes           string              `gorm:"type:varchar(500)"`
	Items           []OrderItemModel    `gorm:"foreignKey:OrderID;references:ID"`
	CancelledAt     *time.Time
	DeliveredAt     *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
// Items are included only when they were preloaded.
func (m *OrderModel) ToDomain() *trade.Order {
	order := &trade.Order{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		OrderNumber:         m.OrderNumber,
		UserID:              m.UserID,
		Status:              m.Status,
		TotalAmount:         m.TotalAmount,
		ShippingAddress:     m.ShippingAddress,
		PaymentMethod:       m.PaymentMethod,
		Notes:               m.Notes,
		CancelledAt:         m.CancelledAt,
		DeliveredAt:         m.DeliveredAt,
		Items:               make([]trade.OrderItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		order.Items = append(order.Items, m.Items[i].ToDomain())
	}
	return order
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.UserID = o.UserID
	m.Status = o.Status
	m.TotalAmount = o.TotalAmount
	m.ShippingAddress = o.ShippingAddress
	m.PaymentMethod = o.PaymentMethod
	m.Notes = o.Notes
	m.CancelledAt = o.CancelledAt
	m.DeliveredAt = o.DeliveredAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i].FromDomain(o.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order line
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(100);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null;check:quantity > 0"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		SellerID:    m.SellerID,
		ProductName: m.ProductName,
		UnitPrice:   m.UnitPrice,
		Quantity:    m.Quantity,
		Subtotal:    m.Subtotal,
		CreatedAt:   m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderItem
func (m *OrderItemModel) FromDomain(i trade.OrderItem) {
	m.ID = i.ID
	m.OrderID = i.OrderID
	m.ProductID = i.ProductID
	m.SellerID = i.SellerID
	m.ProductName = i.ProductName
	m.UnitPrice = i.UnitPrice
	m.Quantity = i.Quantity
	m.Subtotal = i.Subtotal
	m.CreatedAt = i.CreatedAt
}
