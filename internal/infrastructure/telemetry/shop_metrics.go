package telemetry

import (
	"context"

	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ShopMetrics counts orders and payments from domain events
type ShopMetrics struct {
	ordersPlaced      metric.Int64Counter
	orderAmount       metric.Float64Counter
	paymentsCompleted metric.Int64Counter
	paymentsRefunded  metric.Int64Counter
}

// NewShopMetrics registers the business instruments on meter
func NewShopMetrics(meter metric.Meter) (*ShopMetrics, error) {
	var m ShopMetrics
	var err error
	if m.ordersPlaced, err = meter.Int64Counter("shop.orders.placed",
		metric.WithDescription("Orders placed"), metric.WithUnit("{order}")); err != nil {
		return nil, err
	}
	if m.orderAmount, err = meter.Float64Counter("shop.orders.amount",
		metric.WithDescription("Value of placed orders")); err != nil {
		return nil, err
	}
	if m.paymentsCompleted, err = meter.Int64Counter("shop.payments.completed",
		metric.WithDescription("Payments completed"), metric.WithUnit("{payment}")); err != nil {
		return nil, err
	}
	if m.paymentsRefunded, err = meter.Int64Counter("shop.payments.refunded",
		metric.WithDescription("Payments refunded"), metric.WithUnit("{payment}")); err != nil {
		return nil, err
	}
	return &m, nil
}

// EventTypes returns the event types this handler is interested in
func (m *ShopMetrics) EventTypes() []string {
	return []string{
		trade.EventTypeOrderPlaced,
		finance.EventTypePaymentCompleted,
		finance.EventTypePaymentRefunded,
	}
}

// Handle increments the counter matching event
func (m *ShopMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := metric.WithAttributes(attribute.String("tenant_id", event.TenantID().String()))
	switch e := event.(type) {
	case *trade.OrderPlacedEvent:
		m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tenant_id", e.TenantID().String()),
			attribute.String("payment_method", string(e.PaymentMethod)),
		))
		amount, _ := e.TotalAmount.Float64()
		m.orderAmount.Add(ctx, amount, tenant)
	case *finance.PaymentCompletedEvent:
		m.paymentsCompleted.Add(ctx, 1, tenant)
	case *finance.PaymentRefundedEvent:
		m.paymentsRefunded.Add(ctx, 1, tenant)
	}
	return nil
}

var _ shared.EventHandler = (*ShopMetrics)(nil)
