package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/domain/shared"
)

// PaymentFilter contains filter options for querying payments
type PaymentFilter struct {
	UserID  *uuid.UUID
	OrderID *uuid.UUID
	Status  *PaymentStatus
	shared.Pagination
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	Update(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]*Payment, error)
	// FindByTransactionID looks a payment up across tenants, for gateway callbacks
	FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]*Payment, int64, error)
	ExistsCompletedForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error)
	// Summary counts and sums payments per status
	Summary(ctx context.Context, tenantID uuid.UUID) ([]PaymentStatusTotal, error)
	// Since returns lightweight payment rows created at or after from
	Since(ctx context.Context, tenantID uuid.UUID, from time.Time) ([]PaymentRow, error)
}

// PaymentStatusTotal is the number and value of payments in one status
type PaymentStatusTotal struct {
	Status PaymentStatus
	Count  int64
	Amount decimal.Decimal
}

// PaymentRow is the projection used for revenue bucketing
type PaymentRow struct {
	Status    PaymentStatus
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// RefundRequest asks an external gateway to return funds
type RefundRequest struct {
	TransactionID  string
	Amount         decimal.Decimal
	Reason         string
	IdempotencyKey string
}

// RefundResult is the gateway response to a refund
type RefundResult struct {
	RefundID string
	Status   string
}

// PaymentGateway is an external card processor
type PaymentGateway interface {
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

// GatewayEvent is a verified asynchronous notification from a gateway
type GatewayEvent struct {
	Type          string
	TransactionID string
}

const (
	GatewayEventSucceeded = "payment_intent.succeeded"
	GatewayEventFailed    = "payment_intent.payment_failed"
)

// WebhookVerifier authenticates and decodes gateway callbacks
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*GatewayEvent, error)
}

// ErrInvalidSignature is returned for callbacks that fail verification
var ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
