package trade

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
)

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// AllOrderStatuses lists the statuses in fulfilment order
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can move to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusProcessing || target == OrderStatusCancelled
	case OrderStatusProcessing:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	}
	return false
}

// IsRevenue reports whether orders in this status count towards revenue
func (s OrderStatus) IsRevenue() bool {
	return s == OrderStatusProcessing || s == OrderStatusShipped || s == OrderStatusDelivered
}

// PaymentMethod is how the buyer intends to pay
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPaypal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// IsValid reports whether m is an accepted payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal, PaymentMethodBankTransfer, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

// OrderItem is a purchased product line with its price snapshot
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	SellerID    uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}

// Order is the aggregate root for a checkout
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber     string
	UserID          uuid.UUID
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingAddress string
	PaymentMethod   PaymentMethod
	Notes           string
	Items           []OrderItem
	CancelledAt     *time.Time
	DeliveredAt     *time.Time
}

// NewOrder creates a pending order without items
func NewOrder(tenantID, userID uuid.UUID, shippingAddress string, method PaymentMethod, notes string) (*Order, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if n := utf8.RuneCountInString(shippingAddress); n < 10 || n > 500 {
		return nil, shared.NewDomainError("INVALID_SHIPPING_ADDRESS", "Shipping address must be between 10 and 500 characters")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	}
	if utf8.RuneCountInString(notes) > 500 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 500 characters")
	}

	o := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Status:              OrderStatusPending,
		TotalAmount:         decimal.Zero,
		ShippingAddress:     shippingAddress,
		PaymentMethod:       method,
		Notes:               strings.TrimSpace(notes),
		Items:               make([]OrderItem, 0),
	}
	o.OrderNumber = GenerateOrderNumber(o.CreatedAt)
	return o, nil
}

// AddItem appends a line and recalculates the total
func (o *Order) AddItem(productID, sellerID uuid.UUID, productName string, unitPrice decimal.Decimal, quantity int) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-pending order")
	}
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	for _, item := range o.Items {
		if item.ProductID == productID {
			return shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in order")
		}
	}

	o.Items = append(o.Items, OrderItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		SellerID:    sellerID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Subtotal:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:   time.Now(),
	})
	o.recalculateTotal()
	return nil
}

// Place finalizes a new order and raises OrderPlaced
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Order must contain at least one item")
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// TransitionTo moves the order along its fulfilment path
func (o *Order) TransitionTo(target OrderStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Status must be one of pending, processing, shipped, delivered, cancelled")
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change order from %s to %s", o.Status, target))
	}

	now := time.Now()
	from := o.Status
	o.Status = target
	switch target {
	case OrderStatusCancelled:
		o.CancelledAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	}
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// Cancel cancels a pending or processing order
func (o *Order) Cancel() error {
	return o.TransitionTo(OrderStatusCancelled)
}

// ForceCancel cancels the order regardless of its fulfilment state. It is used
// when a completed payment is refunded.
func (o *Order) ForceCancel() {
	if o.Status == OrderStatusCancelled {
		return
	}
	now := time.Now()
	from := o.Status
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// HasSeller reports whether any line was sold by sellerID
func (o *Order) HasSeller(sellerID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// ItemsForSeller returns the lines sold by sellerID
func (o *Order) ItemsForSeller(sellerID uuid.UUID) []OrderItem {
	out := make([]OrderItem, 0)
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			out = append(out, item)
		}
	}
	return out
}

func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.TotalAmount = total
}

// GenerateOrderNumber returns ORD-YYYYMMDD- followed by 8 random hex digits
func GenerateOrderNumber(at time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}
