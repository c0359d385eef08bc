package notification

import (
	"context"
	"fmt"

	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// OrderPlacedHandler emails the buyer a confirmation when an order is placed
type OrderPlacedHandler struct {
	users    identity.UserRepository
	orders   trade.OrderRepository
	mailer   Mailer
	renderer *Renderer
	logger   *zap.Logger
}

// NewOrderPlacedHandler creates a new OrderPlacedHandler
func NewOrderPlacedHandler(
	users identity.UserRepository,
	orders trade.OrderRepository,
	mailer Mailer,
	renderer *Renderer,
	logger *zap.Logger,
) *OrderPlacedHandler {
	return &OrderPlacedHandler{
		users:    users,
		orders:   orders,
		mailer:   mailer,
		renderer: renderer,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPlacedHandler) EventTypes() []string {
	return []string{trade.EventTypeOrderPlaced}
}

// Handle sends the confirmation. Errors are returned for the bus to log.
func (h *OrderPlacedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*trade.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	order, err := h.orders.FindByID(ctx, placed.TenantID(), placed.AggregateID())
	if err != nil {
		return fmt.Errorf("load order %s: %w", placed.OrderNumber, err)
	}
	user, err := h.users.FindByID(ctx, placed.TenantID(), placed.UserID)
	if err != nil {
		return fmt.Errorf("load buyer of %s: %w", placed.OrderNumber, err)
	}

	lines := make([]OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, OrderLine{Name: item.ProductName, Quantity: item.Quantity, Subtotal: item.Subtotal})
	}
	msg, err := h.renderer.OrderConfirmation(user.Email, user.Username, OrderConfirmation{
		OrderNumber:     order.OrderNumber,
		Status:          string(order.Status),
		Total:           order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		Lines:           lines,
	})
	if err != nil {
		return err
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation for %s: %w", order.OrderNumber, err)
	}

	h.logger.Info("Order confirmation sent",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", user.ID.String()))
	return nil
}

var _ shared.EventHandler = (*OrderPlacedHandler)(nil)
