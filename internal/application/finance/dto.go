package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/report"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
)

// CreatePaymentInput contains input for recording a payment against an order
type CreatePaymentInput struct {
	OrderID       uuid.UUID
	PaymentMethod trade.PaymentMethod
	TransactionID string
}

// ListPaymentsInput contains filters for payment listings
type ListPaymentsInput struct {
	Status *finance.PaymentStatus
	shared.Pagination
}

// PaymentDTO represents a payment
type PaymentDTO struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	RefundReason  string          `json:"refund_reason,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// StatusAmount is the number and value of payments in one status
type StatusAmount struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentStats summarizes every payment of the tenant
type PaymentStats struct {
	ByStatus       map[string]StatusAmount `json:"by_status"`
	TotalPayments  int64                   `json:"total_payments"`
	TotalRevenue   decimal.Decimal         `json:"total_revenue"`
	RefundedAmount decimal.Decimal         `json:"refunded_amount"`
	SuccessRate    float64                 `json:"success_rate"`
}

// RevenueReport is the payment revenue series
type RevenueReport struct {
	Period  report.Period          `json:"period"`
	Buckets []report.PaymentBucket `json:"buckets"`
	Summary report.PaymentSummary  `json:"summary"`
}

// ToPaymentDTO converts a payment
func ToPaymentDTO(p *finance.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		PaymentMethod: string(p.PaymentMethod),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
		RefundReason:  p.RefundReason,
		RefundedAt:    p.RefundedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toPaymentDTOs(payments []*finance.Payment) []PaymentDTO {
	out := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		out[i] = ToPaymentDTO(p)
	}
	return out
}
