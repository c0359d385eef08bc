package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
)

const (
	EventTypePaymentCompleted = "PaymentCompleted"
	EventTypePaymentRefunded  = "PaymentRefunded"
)

// PaymentCompletedEvent is published when a payment settles
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, p.ID, p.TenantID),
		OrderID:         p.OrderID,
		Amount:          p.Amount,
	}
}

// PaymentRefundedEvent is published when a payment is refunded
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
}

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(p *Payment) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRefunded, p.ID, p.TenantID),
		OrderID:         p.OrderID,
		Amount:          p.Amount,
		Reason:          p.RefundReason,
	}
}
