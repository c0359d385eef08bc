package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
)

// PaymentStatus represents the settlement status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// AllPaymentStatuses lists every payment status
var AllPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

// IsValid reports whether s is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// DefaultRefundReason is recorded when an admin refunds without a reason
const DefaultRefundReason = "No reason provided"

// Payment records a payment attempt for an order
type Payment struct {
	shared.TenantAggregateRoot
	OrderID       uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod trade.PaymentMethod
	Status        PaymentStatus
	TransactionID string
	PaidAt        *time.Time
	RefundReason  string
	RefundedAt    *time.Time
}

// NewPayment creates a pending payment for the full order total
func NewPayment(order *trade.Order, method trade.PaymentMethod, transactionID string) (*Payment, error) {
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	}
	if order.Status == trade.OrderStatusCancelled {
		return nil, shared.NewDomainError("ORDER_CANCELLED", "Cannot pay for a cancelled order")
	}
	if len(transactionID) > 255 {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_ID", "Transaction ID cannot exceed 255 characters")
	}

	return &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(order.TenantID),
		OrderID:             order.ID,
		UserID:              order.UserID,
		Amount:              order.TotalAmount,
		PaymentMethod:       method,
		Status:              PaymentStatusPending,
		TransactionID:       strings.TrimSpace(transactionID),
	}, nil
}

// UpdateStatus applies a status change requested by the payer or an admin.
// Refunds go through Refund, and completed payments are final here.
func (p *Payment) UpdateStatus(status PaymentStatus, transactionID string) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Status must be one of pending, completed, failed, refunded")
	}
	if status == PaymentStatusRefunded {
		return shared.NewDomainError("INVALID_STATE", "Use the refund operation to refund a payment")
	}
	if p.Status == PaymentStatusCompleted || p.Status == PaymentStatusRefunded {
		return shared.NewDomainError("INVALID_STATE", "Payment is already "+string(p.Status))
	}

	if transactionID != "" {
		p.TransactionID = strings.TrimSpace(transactionID)
	}
	p.Status = status
	if status == PaymentStatusCompleted {
		now := time.Now()
		p.PaidAt = &now
		p.AddDomainEvent(NewPaymentCompletedEvent(p))
	}
	p.Touch()
	return nil
}

// Refund marks a completed payment as refunded
func (p *Payment) Refund(reason string) error {
	if p.Status != PaymentStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed payments can be refunded")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRefundReason
	}

	now := time.Now()
	p.Status = PaymentStatusRefunded
	p.RefundReason = reason
	p.RefundedAt = &now
	p.Touch()
	p.AddDomainEvent(NewPaymentRefundedEvent(p))
	return nil
}

// IsOwnedBy reports whether userID made the payment
func (p *Payment) IsOwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// IsStripeIntent reports whether the transaction id references a Stripe PaymentIntent
func (p *Payment) IsStripeIntent() bool {
	return strings.HasPrefix(p.TransactionID, "pi_")
}
