package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/application/txn"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/report"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"go.uber.org/zap"
)

var (
	errAlreadyPaid     = shared.NewDomainError("CONFLICT", "Order has already been paid")
	errNotPaymentParty = shared.Forbidden("You do not have access to this payment")
	errGatewayDisabled = shared.NewDomainError("GATEWAY_DISABLED", "Stripe is not configured")
	errRefundFailed    = shared.NewDomainError("REFUND_FAILED", "The payment gateway rejected the refund")
)

// PaymentService records payments, refunds and gateway callbacks
type PaymentService struct {
	scope       txn.Scope
	paymentRepo finance.PaymentRepository
	orderRepo   trade.OrderRepository
	gateway     finance.PaymentGateway
	verifier    finance.WebhookVerifier
	events      shared.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// PaymentServiceConfig holds the collaborators of a PaymentService.
// Gateway and Verifier are nil when Stripe is not configured.
type PaymentServiceConfig struct {
	Scope       txn.Scope
	PaymentRepo finance.PaymentRepository
	OrderRepo   trade.OrderRepository
	Gateway     finance.PaymentGateway
	Verifier    finance.WebhookVerifier
	Events      shared.EventPublisher
	Logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		scope:       cfg.Scope,
		paymentRepo: cfg.PaymentRepo,
		orderRepo:   cfg.OrderRepo,
		gateway:     cfg.Gateway,
		verifier:    cfg.Verifier,
		events:      cfg.Events,
		logger:      logger,
		now:         time.Now,
	}
}

// Create records a pending payment for the full order total
func (s *PaymentService) Create(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, input CreatePaymentInput) (*PaymentDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(order.UserID) {
		return nil, shared.Forbidden("You can only pay for your own orders")
	}

	payment, err := finance.NewPayment(order, input.PaymentMethod, input.TransactionID)
	if err != nil {
		return nil, err
	}
	paid, err := s.paymentRepo.ExistsCompletedForOrder(ctx, tenantID, order.ID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, errAlreadyPaid
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("Payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	dto := ToPaymentDTO(payment)
	return &dto, nil
}

// ListMine returns the caller's payments
func (s *PaymentService) ListMine(ctx context.Context, tenantID, userID uuid.UUID, p shared.Pagination) (shared.Page[PaymentDTO], error) {
	return s.list(ctx, tenantID, finance.PaymentFilter{UserID: &userID, Pagination: p})
}

// AdminList returns every payment of the tenant
func (s *PaymentService) AdminList(ctx context.Context, tenantID uuid.UUID, input ListPaymentsInput) (shared.Page[PaymentDTO], error) {
	return s.list(ctx, tenantID, finance.PaymentFilter{Status: input.Status, Pagination: input.Pagination})
}

func (s *PaymentService) list(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentFilter) (shared.Page[PaymentDTO], error) {
	payments, total, err := s.paymentRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Page[PaymentDTO]{}, err
	}
	return shared.NewPage(toPaymentDTOs(payments), total, filter.Pagination), nil
}

// Get returns one payment to its payer or an admin
func (s *PaymentService) Get(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.paymentRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(payment.UserID) {
		return nil, errNotPaymentParty
	}
	dto := ToPaymentDTO(payment)
	return &dto, nil
}

// ForOrder returns the payments of an order to its buyer or an admin
func (s *PaymentService) ForOrder(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, orderID uuid.UUID) ([]PaymentDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(order.UserID) {
		return nil, errNotPaymentParty
	}
	payments, err := s.paymentRepo.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	return toPaymentDTOs(payments), nil
}

// UpdateStatus changes a payment status on behalf of its payer or an admin.
// Completing a payment moves a pending order to processing.
func (s *PaymentService) UpdateStatus(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, status finance.PaymentStatus, transactionID string) (*PaymentDTO, error) {
	return s.change(ctx, tenantID, id, func(payment *finance.Payment, _ *trade.Order) error {
		if !actor.CanManage(payment.UserID) {
			return errNotPaymentParty
		}
		return payment.UpdateStatus(status, transactionID)
	})
}

// Refund returns the funds of a completed payment and cancels its order.
// Stripe payment intents are refunded at the gateway first.
func (s *PaymentService) Refund(ctx context.Context, tenantID, id uuid.UUID, reason string) (*PaymentDTO, error) {
	payment, err := s.paymentRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status != finance.PaymentStatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Only completed payments can be refunded")
	}

	if payment.IsStripeIntent() && s.gateway != nil {
		result, err := s.gateway.Refund(ctx, finance.RefundRequest{
			TransactionID:  payment.TransactionID,
			Amount:         payment.Amount,
			Reason:         reason,
			IdempotencyKey: "refund-" + payment.ID.String(),
		})
		if err != nil {
			s.logger.Error("Stripe refund failed",
				zap.String("payment_id", payment.ID.String()),
				zap.String("transaction_id", payment.TransactionID),
				zap.Error(err))
			return nil, errRefundFailed
		}
		s.logger.Info("Stripe refund created",
			zap.String("payment_id", payment.ID.String()),
			zap.String("refund_id", result.RefundID),
			zap.String("status", result.Status))
	}

	return s.change(ctx, tenantID, id, func(payment *finance.Payment, order *trade.Order) error {
		if err := payment.Refund(reason); err != nil {
			return err
		}
		if order != nil {
			order.ForceCancel()
		}
		return nil
	})
}

// HandleWebhook applies a verified Stripe event to the matching payment.
// Events for unknown transactions are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.verifier == nil {
		return errGatewayDisabled
	}
	event, err := s.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected Stripe webhook", zap.Error(err))
		return err
	}

	var target finance.PaymentStatus
	switch event.Type {
	case finance.GatewayEventSucceeded:
		target = finance.PaymentStatusCompleted
	case finance.GatewayEventFailed:
		target = finance.PaymentStatusFailed
	default:
		s.logger.Debug("Ignoring Stripe event", zap.String("type", event.Type))
		return nil
	}

	payment, err := s.paymentRepo.FindByTransactionID(ctx, event.TransactionID)
	if shared.IsNotFound(err) {
		s.logger.Warn("Stripe event for unknown transaction",
			zap.String("type", event.Type),
			zap.String("transaction_id", event.TransactionID))
		return nil
	}
	if err != nil {
		return err
	}
	if payment.Status == target || payment.Status == finance.PaymentStatusCompleted || payment.Status == finance.PaymentStatusRefunded {
		return nil
	}

	_, err = s.change(ctx, payment.TenantID, payment.ID, func(p *finance.Payment, _ *trade.Order) error {
		return p.UpdateStatus(target, "")
	})
	if err == nil {
		s.logger.Info("Payment updated from Stripe",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", string(target)))
	}
	return err
}

// change loads a payment and its order in one transaction, applies fn and
// saves both. A pending order advances to processing once the payment completes.
func (s *PaymentService) change(ctx context.Context, tenantID, id uuid.UUID, fn func(*finance.Payment, *trade.Order) error) (*PaymentDTO, error) {
	var (
		payment *finance.Payment
		order   *trade.Order
	)
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		payment, err = repos.Payments().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		order, err = repos.Orders().FindByID(ctx, tenantID, payment.OrderID)
		if shared.IsNotFound(err) {
			order = nil
		} else if err != nil {
			return err
		}

		if err := fn(payment, order); err != nil {
			return err
		}
		if err := repos.Payments().Update(ctx, payment); err != nil {
			return err
		}
		if order == nil {
			return nil
		}
		if payment.Status == finance.PaymentStatusCompleted && order.Status == trade.OrderStatusPending {
			if err := order.TransitionTo(trade.OrderStatusProcessing); err != nil {
				return err
			}
		}
		if len(order.GetDomainEvents()) == 0 {
			return nil
		}
		return repos.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	events := payment.GetDomainEvents()
	payment.ClearDomainEvents()
	if order != nil {
		events = append(events, order.GetDomainEvents()...)
		order.ClearDomainEvents()
	}
	if s.events != nil && len(events) > 0 {
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish payment events", zap.Error(err))
		}
	}

	dto := ToPaymentDTO(payment)
	return &dto, nil
}

// Stats counts and sums payments per status
func (s *PaymentService) Stats(ctx context.Context, tenantID uuid.UUID) (*PaymentStats, error) {
	totals, err := s.paymentRepo.Summary(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats := &PaymentStats{
		ByStatus:       make(map[string]StatusAmount, len(finance.AllPaymentStatuses)),
		TotalRevenue:   decimal.Zero,
		RefundedAmount: decimal.Zero,
	}
	for _, status := range finance.AllPaymentStatuses {
		stats.ByStatus[string(status)] = StatusAmount{Amount: decimal.Zero}
	}
	var completed int64
	for _, t := range totals {
		stats.ByStatus[string(t.Status)] = StatusAmount{Count: t.Count, Amount: t.Amount}
		stats.TotalPayments += t.Count
		switch t.Status {
		case finance.PaymentStatusCompleted:
			completed = t.Count
			stats.TotalRevenue = t.Amount
		case finance.PaymentStatusRefunded:
			stats.RefundedAmount = t.Amount
		}
	}
	stats.SuccessRate = report.Round2(report.Percent(completed, stats.TotalPayments))
	return stats, nil
}

// Revenue buckets payment activity by period, newest first
func (s *PaymentService) Revenue(ctx context.Context, tenantID uuid.UUID, period string, limit int) (*RevenueReport, error) {
	p, err := report.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	limit, err = report.ValidateLimit(limit, report.DefaultBucketLimit, report.MaxBucketLimit)
	if err != nil {
		return nil, err
	}

	rows, err := s.paymentRepo.Since(ctx, tenantID, p.Start(s.now(), limit))
	if err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}
	points := make([]report.PaymentPoint, len(rows))
	for i, r := range rows {
		points[i] = report.PaymentPoint{Status: string(r.Status), Amount: r.Amount, CreatedAt: r.CreatedAt}
	}

	buckets, summary := report.BucketPayments(points, p, limit)
	return &RevenueReport{Period: p, Buckets: buckets, Summary: summary}, nil
}
