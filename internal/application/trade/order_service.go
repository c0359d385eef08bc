package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/unimerch/backend/internal/application/txn"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long an Idempotency-Key replays its order
const DefaultIdempotencyTTL = 24 * time.Hour

var (
	errCartEmpty        = shared.NewDomainError("CART_EMPTY", "Cart is empty")
	errOrderInProgress  = shared.NewDomainError("CONFLICT", "An order with this idempotency key is still being processed")
	errNotOrderParty    = shared.Forbidden("You do not have access to this order")
	errNotSellerOrAdmin = shared.Forbidden("Only the seller of an item or an admin can update this order")
)

// ListOrdersInput contains filters for order listings
type ListOrdersInput struct {
	Status *trade.OrderStatus
	UserID *uuid.UUID
	shared.Pagination
}

// OrderService places and manages orders
type OrderService struct {
	scope          txn.Scope
	orderRepo      trade.OrderRepository
	idempotency    shared.IdempotencyStore
	events         shared.EventPublisher
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService. idempotency and events may be nil.
func NewOrderService(
	scope txn.Scope,
	orderRepo trade.OrderRepository,
	idempotency shared.IdempotencyStore,
	events shared.EventPublisher,
	idempotencyTTL time.Duration,
	logger *zap.Logger,
) *OrderService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = DefaultIdempotencyTTL
	}
	return &OrderService{
		scope:          scope,
		orderRepo:      orderRepo,
		idempotency:    idempotency,
		events:         events,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
	}
}

// Create places an order. The second return value is true when an earlier
// order was replayed for the same idempotency key.
func (s *OrderService) Create(ctx context.Context, tenantID, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, bool, error) {
	if input.IdempotencyKey == "" || s.idempotency == nil {
		dto, err := s.place(ctx, tenantID, userID, input)
		return dto, false, err
	}

	key := fmt.Sprintf("order:%s:%s:%s", tenantID, userID, input.IdempotencyKey)
	if dto, ok, err := s.replay(ctx, tenantID, key); err != nil || ok {
		return dto, ok, err
	}

	claimed, err := s.idempotency.Claim(ctx, key, s.idempotencyTTL)
	if err != nil {
		return nil, false, err
	}
	if !claimed {
		// the first request may have completed between Lookup and Claim
		if dto, ok, err := s.replay(ctx, tenantID, key); err != nil || ok {
			return dto, ok, err
		}
		return nil, false, errOrderInProgress
	}

	dto, err := s.place(ctx, tenantID, userID, input)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return nil, false, err
	}
	if err := s.idempotency.Complete(ctx, key, dto.ID.String(), s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to store idempotency result", zap.String("key", key), zap.Error(err))
	}
	return dto, false, nil
}

func (s *OrderService) replay(ctx context.Context, tenantID uuid.UUID, key string) (*OrderDTO, bool, error) {
	result, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	orderID, err := uuid.Parse(result)
	if err != nil {
		return nil, false, fmt.Errorf("idempotency result for %s: %w", key, err)
	}
	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, false, err
	}
	dto := ToOrderDTO(order)
	return &dto, true, nil
}

func (s *OrderService) place(ctx context.Context, tenantID, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	order, err := trade.NewOrder(tenantID, userID, input.ShippingAddress, input.PaymentMethod, input.Notes)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos txn.Repositories) error {
		lines := input.Items
		if input.FromCart || len(lines) == 0 {
			items, err := repos.Cart().FindByUser(ctx, tenantID, userID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return errCartEmpty
			}
			lines = make([]OrderLineInput, len(items))
			for i, item := range items {
				lines[i] = OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity}
			}
		}

		lines, err := mergeLines(lines)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			product, err := repos.Products().FindByID(ctx, tenantID, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsAvailable() {
				return shared.NewDomainError("PRODUCT_UNAVAILABLE", fmt.Sprintf("%s is not available", product.Name))
			}
			if err := repos.Products().DecrementStock(ctx, tenantID, product.ID, line.Quantity); err != nil {
				if errors.Is(err, shared.ErrInsufficientStock) {
					return shared.NewDomainError("INSUFFICIENT_STOCK",
						fmt.Sprintf("Insufficient stock for %s: %d available", product.Name, product.Quantity))
				}
				return err
			}
			if err := order.AddItem(product.ID, product.SellerID, product.Name, product.EffectivePrice(), line.Quantity); err != nil {
				return err
			}
			productIDs = append(productIDs, product.ID)
		}

		if err := order.Place(); err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}
		return repos.Cart().RemoveProducts(ctx, tenantID, userID, productIDs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	s.publish(ctx, order)

	dto := ToOrderDTO(order)
	return &dto, nil
}

// mergeLines folds repeated products into one line
func mergeLines(lines []OrderLineInput) ([]OrderLineInput, error) {
	merged := make([]OrderLineInput, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// List returns the caller's orders
func (s *OrderService) List(ctx context.Context, tenantID, userID uuid.UUID, input ListOrdersInput) (shared.Page[OrderDTO], error) {
	return s.list(ctx, tenantID, trade.OrderFilter{UserID: &userID, Status: input.Status, Pagination: input.Pagination})
}

// AdminList returns every order, optionally for one buyer
func (s *OrderService) AdminList(ctx context.Context, tenantID uuid.UUID, input ListOrdersInput) (shared.Page[OrderDTO], error) {
	return s.list(ctx, tenantID, trade.OrderFilter{UserID: input.UserID, Status: input.Status, Pagination: input.Pagination})
}

// ListBySeller returns orders containing the seller's items, with only those items
func (s *OrderService) ListBySeller(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, sellerID uuid.UUID, input ListOrdersInput) (shared.Page[OrderDTO], error) {
	if !actor.CanManage(sellerID) {
		return shared.Page[OrderDTO]{}, shared.Forbidden("You can only view your own sales")
	}
	orders, total, err := s.orderRepo.FindAll(ctx, tenantID, trade.OrderFilter{SellerID: &sellerID, Status: input.Status, Pagination: input.Pagination})
	if err != nil {
		return shared.Page[OrderDTO]{}, err
	}
	items := make([]OrderDTO, len(orders))
	for i, o := range orders {
		items[i] = orderDTO(o, o.ItemsForSeller(sellerID))
	}
	return shared.NewPage(items, total, input.Pagination), nil
}

func (s *OrderService) list(ctx context.Context, tenantID uuid.UUID, filter trade.OrderFilter) (shared.Page[OrderDTO], error) {
	orders, total, err := s.orderRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Page[OrderDTO]{}, err
	}
	page := shared.NewPage(orders, total, filter.Pagination)
	return shared.MapPage(page, ToOrderDTO), nil
}

// Stats summarizes the caller's orders. Admins get tenant-wide figures.
func (s *OrderService) Stats(ctx context.Context, tenantID uuid.UUID, actor identity.Actor) (*OrderStats, error) {
	var userID *uuid.UUID
	if !actor.IsAdmin() {
		userID = &actor.UserID
	}
	totals, err := s.orderRepo.StatusSummary(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{ByStatus: make(map[string]int64, len(trade.AllOrderStatuses)), TotalSpent: decimal.Zero}
	for _, status := range trade.AllOrderStatuses {
		stats.ByStatus[string(status)] = 0
	}
	for _, t := range totals {
		stats.ByStatus[string(t.Status)] = t.Count
		stats.TotalOrders += t.Count
		if t.Status != trade.OrderStatusCancelled {
			stats.TotalSpent = stats.TotalSpent.Add(t.Amount)
		}
	}
	return stats, nil
}

// Get returns an order. Sellers who are not the buyer see only their own items.
func (s *OrderService) Get(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	var dto OrderDTO
	switch {
	case actor.CanManage(order.UserID):
		dto = ToOrderDTO(order)
	case actor.IsSeller() && order.HasSeller(actor.UserID):
		dto = orderDTO(order, order.ItemsForSeller(actor.UserID))
	default:
		return nil, errNotOrderParty
	}
	return &dto, nil
}

// Items returns the lines of an order visible to the actor
func (s *OrderService) Items(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) ([]OrderItemDTO, error) {
	dto, err := s.Get(ctx, tenantID, actor, id)
	if err != nil {
		return nil, err
	}
	return dto.Items, nil
}

// UpdateStatus moves an order along its fulfilment path. Cancelling returns
// the items to stock.
func (s *OrderService) UpdateStatus(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID, status trade.OrderStatus) (*OrderDTO, error) {
	return s.change(ctx, tenantID, id, func(order *trade.Order) error {
		if !actor.IsAdmin() && !(actor.IsSeller() && order.HasSeller(actor.UserID)) {
			return errNotSellerOrAdmin
		}
		return order.TransitionTo(status)
	})
}

// Cancel cancels a pending or processing order and restores stock
func (s *OrderService) Cancel(ctx context.Context, tenantID uuid.UUID, actor identity.Actor, id uuid.UUID) (*OrderDTO, error) {
	return s.change(ctx, tenantID, id, func(order *trade.Order) error {
		if !actor.CanManage(order.UserID) {
			return errNotOrderParty
		}
		if order.Status != trade.OrderStatusPending && order.Status != trade.OrderStatusProcessing {
			return shared.NewDomainError("INVALID_STATE", "Only pending or processing orders can be cancelled")
		}
		return order.Cancel()
	})
}

func (s *OrderService) change(ctx context.Context, tenantID, id uuid.UUID, apply func(*trade.Order) error) (*OrderDTO, error) {
	var order *trade.Order
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		wasCancelled := order.Status == trade.OrderStatusCancelled
		if err := apply(order); err != nil {
			return err
		}
		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}
		if wasCancelled || order.Status != trade.OrderStatusCancelled {
			return nil
		}
		for _, item := range order.Items {
			if err := repos.Products().IncrementStock(ctx, tenantID, item.ProductID, item.Quantity); err != nil {
				if shared.IsNotFound(err) {
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
	)
	s.publish(ctx, order)

	dto := ToOrderDTO(order)
	return &dto, nil
}

func (s *OrderService) publish(ctx context.Context, order *trade.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}
