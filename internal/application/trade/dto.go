package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/trade"
)

// CartProductDTO is the product snapshot shown next to a cart line
type CartProductDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Images         []string        `json:"images"`
	Stock          int             `json:"stock"`
	Status         string          `json:"status"`
}

// CartLineDTO is one cart line
type CartLineDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *CartProductDTO `json:"product"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Reason    string          `json:"reason,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
}

// CartSummaryDTO totals a set of lines
type CartSummaryDTO struct {
	TotalItems  int             `json:"total_items"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CartView is the full cart
type CartView struct {
	Items   []CartLineDTO  `json:"items"`
	Summary CartSummaryDTO `json:"summary"`
}

// CartValidation splits the cart into lines that can and cannot be checked out
type CartValidation struct {
	ValidItems   []CartLineDTO  `json:"valid_items"`
	InvalidItems []CartLineDTO  `json:"invalid_items"`
	IsValid      bool           `json:"is_valid"`
	Summary      CartSummaryDTO `json:"summary"`
}

// CartCount is the cart badge count
type CartCount struct {
	TotalItems     int `json:"total_items"`
	UniqueProducts int `json:"unique_products"`
}

// CartTotal is the amount due for the cart
type CartTotal struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalItems  int             `json:"total_items"`
	Currency    string          `json:"currency"`
}

// OrderLineInput requests quantity units of a product
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput contains input for placing an order
type CreateOrderInput struct {
	Items           []OrderLineInput
	FromCart        bool
	ShippingAddress string
	PaymentMethod   trade.PaymentMethod
	Notes           string
	IdempotencyKey  string
}

// OrderItemDTO is one order line
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDTO represents an order with its items
type OrderDTO struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          uuid.UUID       `json:"user_id"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Notes           string          `json:"notes,omitempty"`
	Items           []OrderItemDTO  `json:"items"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderStats counts orders per status
type OrderStats struct {
	ByStatus    map[string]int64 `json:"by_status"`
	TotalOrders int64            `json:"total_orders"`
	TotalSpent  decimal.Decimal  `json:"total_spent"`
}

// ToOrderDTO converts an order
func ToOrderDTO(o *trade.Order) OrderDTO {
	return orderDTO(o, o.Items)
}

func orderDTO(o *trade.Order, items []trade.OrderItem) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		Notes:           o.Notes,
		Items:           make([]OrderItemDTO, len(items)),
		CancelledAt:     o.CancelledAt,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for i, item := range items {
		dto.Items[i] = OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			SellerID:    item.SellerID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		}
	}
	return dto
}

func toCartLineDTO(l trade.CartLine) CartLineDTO {
	dto := CartLineDTO{
		ID:        l.Item.ID,
		ProductID: l.Item.ProductID,
		Quantity:  l.Item.Quantity,
		Subtotal:  l.Subtotal(),
		AddedAt:   l.Item.CreatedAt,
	}
	if p := l.Product; p != nil {
		images := p.Images
		if images == nil {
			images = []string{}
		}
		dto.Product = &CartProductDTO{
			ID:             p.ID,
			Name:           p.Name,
			Price:          p.Price,
			EffectivePrice: p.EffectivePrice(),
			Images:         images,
			Stock:          p.Quantity,
			Status:         string(p.Status),
		}
	}
	return dto
}

func toSummaryDTO(s trade.CartSummary) CartSummaryDTO {
	return CartSummaryDTO{TotalItems: s.TotalItems, ItemCount: s.ItemCount, TotalAmount: s.TotalAmount}
}
