package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/cache"
	"github.com/unimerch/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func newOrderService(t *testing.T, s *shop) (*OrderService, *recordingPublisher) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	events := &recordingPublisher{}
	svc := NewOrderService(persistence.NewGormTransactionScope(s.db), s.orders, store, events, 0, zap.NewNop())
	return svc, events
}

func orderInput(lines ...OrderLineInput) CreateOrderInput {
	return CreateOrderInput{
		Items:           lines,
		ShippingAddress: testAddress,
		PaymentMethod:   trade.PaymentMethodCashOnDelivery,
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	return derr.Code
}

func TestOrderService_Create(t *testing.T) {
	t.Run("decrements stock and snapshots effective prices", func(t *testing.T) {
		s := newShop(t)
		svc, events := newOrderService(t, s)
		ctx := t.Context()

		hoodie := s.product(t, "Hoodie", 250000, 3)
		hoodie.DiscountPrice = ptr(decimal.NewFromInt(200000))
		require.NoError(t, s.products.Update(ctx, hoodie))
		mug := s.product(t, "Mug", 90000, 10)

		order, replayed, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(
			OrderLineInput{ProductID: hoodie.ID, Quantity: 1},
			OrderLineInput{ProductID: mug.ID, Quantity: 2},
			OrderLineInput{ProductID: hoodie.ID, Quantity: 2},
		))
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, string(trade.OrderStatusPending), order.Status)
		assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, order.OrderNumber)
		require.Len(t, order.Items, 2)
		assert.True(t, decimal.NewFromInt(780000).Equal(order.TotalAmount))

		byProduct := map[uuid.UUID]OrderItemDTO{}
		for _, item := range order.Items {
			byProduct[item.ProductID] = item
		}
		assert.Equal(t, 3, byProduct[hoodie.ID].Quantity)
		assert.True(t, decimal.NewFromInt(200000).Equal(byProduct[hoodie.ID].UnitPrice))
		assert.Equal(t, s.seller.ID, byProduct[hoodie.ID].SellerID)

		fresh := s.reload(t, hoodie)
		assert.Equal(t, 0, fresh.Quantity)
		assert.Equal(t, catalog.ProductStatusOutOfStock, fresh.Status)
		assert.Equal(t, 8, s.reload(t, mug).Quantity)

		assert.Equal(t, []string{trade.EventTypeOrderPlaced}, events.types())
	})

	t.Run("rolls back every decrement when one product is short", func(t *testing.T) {
		s := newShop(t)
		svc, events := newOrderService(t, s)
		ctx := t.Context()

		plenty := s.product(t, "Hoodie", 100000, 10)
		scarce := s.product(t, "Scarf", 50000, 1)

		_, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(
			OrderLineInput{ProductID: plenty.ID, Quantity: 4},
			OrderLineInput{ProductID: scarce.ID, Quantity: 2},
		))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 10, s.reload(t, plenty).Quantity)
		assert.Equal(t, 1, s.reload(t, scarce).Quantity)
		assert.Empty(t, events.types())

		_, total, err := s.orders.FindAll(ctx, s.tenantID, trade.OrderFilter{Pagination: shared.NewPagination(1, 10)})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("rejects missing and unavailable products", func(t *testing.T) {
		s := newShop(t)
		svc, _ := newOrderService(t, s)
		ctx := t.Context()

		_, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(OrderLineInput{ProductID: uuid.New(), Quantity: 1}))
		assert.True(t, shared.IsNotFound(err))

		pending := s.product(t, "Draft", 100000, 5)
		require.NoError(t, s.products.SetStatus(ctx, s.tenantID, pending.ID, catalog.ProductStatusPending))
		_, _, err = svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(OrderLineInput{ProductID: pending.ID, Quantity: 1}))
		assert.Equal(t, "PRODUCT_UNAVAILABLE", codeOf(t, err))
	})

	t.Run("validates the order header before touching stock", func(t *testing.T) {
		s := newShop(t)
		svc, _ := newOrderService(t, s)
		hoodie := s.product(t, "Hoodie", 100000, 5)

		input := orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 1})
		input.ShippingAddress = "short"
		_, _, err := svc.Create(t.Context(), s.tenantID, s.buyer.ID, input)
		assert.Equal(t, "INVALID_SHIPPING_ADDRESS", codeOf(t, err))
		assert.Equal(t, 5, s.reload(t, hoodie).Quantity)
	})
}

func TestOrderService_CreateFromCart(t *testing.T) {
	s := newShop(t)
	svc, _ := newOrderService(t, s)
	carts := s.cartService()
	ctx := t.Context()

	_, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput())
	assert.Equal(t, "CART_EMPTY", codeOf(t, err))

	hoodie := s.product(t, "Hoodie", 100000, 5)
	mug := s.product(t, "Mug", 40000, 5)
	_, err = carts.Add(ctx, s.tenantID, s.buyer.ID, hoodie.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(ctx, s.tenantID, s.buyer.ID, mug.ID, 1)
	require.NoError(t, err)

	// ordering only the mug directly leaves the hoodie in the cart
	_, _, err = svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(OrderLineInput{ProductID: mug.ID, Quantity: 1}))
	require.NoError(t, err)
	view, err := carts.Get(ctx, s.tenantID, s.buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, hoodie.ID, view.Items[0].ProductID)

	input := orderInput()
	input.FromCart = true
	order, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, input)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	count, err := carts.Count(ctx, s.tenantID, s.buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, count.UniqueProducts)
}

func TestOrderService_CreateIdempotent(t *testing.T) {
	s := newShop(t)
	svc, events := newOrderService(t, s)
	ctx := t.Context()
	hoodie := s.product(t, "Hoodie", 100000, 5)

	input := orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 2})
	input.IdempotencyKey = "checkout-1"

	first, replayed, err := svc.Create(ctx, s.tenantID, s.buyer.ID, input)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := svc.Create(ctx, s.tenantID, s.buyer.ID, input)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, s.reload(t, hoodie).Quantity)
	assert.Len(t, events.types(), 1)

	// the key is scoped to the user
	other := s.user(t, "bob", "bob@uni.edu", identity.RoleUser)
	third, replayed, err := svc.Create(ctx, s.tenantID, other.ID, input)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, first.ID, third.ID)

	// a failed attempt releases the key so it can be retried
	failing := orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 10})
	failing.IdempotencyKey = "checkout-2"
	_, _, err = svc.Create(ctx, s.tenantID, s.buyer.ID, failing)
	require.Error(t, err)

	failing.Items[0].Quantity = 1
	_, replayed, err = svc.Create(ctx, s.tenantID, s.buyer.ID, failing)
	require.NoError(t, err)
	assert.False(t, replayed)
}

func TestOrderService_Access(t *testing.T) {
	s := newShop(t)
	svc, _ := newOrderService(t, s)
	ctx := t.Context()

	other := s.user(t, "other_store", "other@uni.edu", identity.RoleSeller)
	mine := s.product(t, "Hoodie", 100000, 5)
	theirs, err := catalog.NewProduct(s.tenantID, other.ID, catalog.ProductDetails{
		Name: "Notebook", Price: decimal.NewFromInt(30000), CategoryID: s.category.ID,
	}, 5)
	require.NoError(t, err)
	require.NoError(t, s.products.Create(ctx, theirs))

	order, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(
		OrderLineInput{ProductID: mine.ID, Quantity: 1},
		OrderLineInput{ProductID: theirs.ID, Quantity: 1},
	))
	require.NoError(t, err)

	t.Run("buyer and admin see every item", func(t *testing.T) {
		for _, u := range []*identity.User{s.buyer, s.admin} {
			got, err := svc.Get(ctx, s.tenantID, actorOf(u), order.ID)
			require.NoError(t, err, u.Username)
			assert.Len(t, got.Items, 2)
		}
	})

	t.Run("seller sees only their items", func(t *testing.T) {
		items, err := svc.Items(ctx, s.tenantID, actorOf(other), order.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, theirs.ID, items[0].ProductID)
	})

	t.Run("strangers are forbidden", func(t *testing.T) {
		stranger := s.user(t, "mallory", "mallory@uni.edu", identity.RoleUser)
		_, err := svc.Get(ctx, s.tenantID, actorOf(stranger), order.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("seller listings are restricted to self or admin", func(t *testing.T) {
		page, err := svc.ListBySeller(ctx, s.tenantID, actorOf(other), other.ID, ListOrdersInput{Pagination: shared.NewPagination(1, 10)})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Len(t, page.Items[0].Items, 1)

		_, err = svc.ListBySeller(ctx, s.tenantID, actorOf(other), s.seller.ID, ListOrdersInput{Pagination: shared.NewPagination(1, 10)})
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = svc.ListBySeller(ctx, s.tenantID, actorOf(s.admin), s.seller.ID, ListOrdersInput{Pagination: shared.NewPagination(1, 10)})
		assert.NoError(t, err)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	s := newShop(t)
	svc, events := newOrderService(t, s)
	ctx := t.Context()
	hoodie := s.product(t, "Hoodie", 100000, 10)

	place := func(t *testing.T) *OrderDTO {
		t.Helper()
		order, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 2}))
		require.NoError(t, err)
		return order
	}

	t.Run("walks the fulfilment path", func(t *testing.T) {
		order := place(t)
		for _, next := range []trade.OrderStatus{trade.OrderStatusProcessing, trade.OrderStatusShipped, trade.OrderStatusDelivered} {
			updated, err := svc.UpdateStatus(ctx, s.tenantID, actorOf(s.seller), order.ID, next)
			require.NoError(t, err)
			assert.Equal(t, string(next), updated.Status)
		}
		_, err := svc.UpdateStatus(ctx, s.tenantID, actorOf(s.admin), order.ID, trade.OrderStatusPending)
		assert.Equal(t, "INVALID_STATE", codeOf(t, err))
		assert.Contains(t, events.types(), trade.EventTypeOrderStatusChanged)
	})

	t.Run("buyers cannot update status", func(t *testing.T) {
		order := place(t)
		_, err := svc.UpdateStatus(ctx, s.tenantID, actorOf(s.buyer), order.ID, trade.OrderStatusProcessing)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("cancelling through status restores stock", func(t *testing.T) {
		before := s.reload(t, hoodie).Quantity
		order := place(t)
		assert.Equal(t, before-2, s.reload(t, hoodie).Quantity)

		_, err := svc.UpdateStatus(ctx, s.tenantID, actorOf(s.admin), order.ID, trade.OrderStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, before, s.reload(t, hoodie).Quantity)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	s := newShop(t)
	svc, _ := newOrderService(t, s)
	ctx := t.Context()
	hoodie := s.product(t, "Hoodie", 100000, 2)

	order, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, catalog.ProductStatusOutOfStock, s.reload(t, hoodie).Status)

	_, err = svc.Cancel(ctx, s.tenantID, actorOf(s.seller), order.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	cancelled, err := svc.Cancel(ctx, s.tenantID, actorOf(s.buyer), order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(trade.OrderStatusCancelled), cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	fresh := s.reload(t, hoodie)
	assert.Equal(t, 2, fresh.Quantity)
	assert.Equal(t, catalog.ProductStatusAvailable, fresh.Status)

	_, err = svc.Cancel(ctx, s.tenantID, actorOf(s.buyer), order.ID)
	assert.Equal(t, "INVALID_STATE", codeOf(t, err))
	assert.Equal(t, 2, s.reload(t, hoodie).Quantity)
}

func TestOrderService_ListAndStats(t *testing.T) {
	s := newShop(t)
	svc, _ := newOrderService(t, s)
	ctx := t.Context()
	hoodie := s.product(t, "Hoodie", 100000, 20)
	other := s.user(t, "bob", "bob@uni.edu", identity.RoleUser)

	for range 3 {
		_, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 1}))
		require.NoError(t, err)
	}
	cancelled, _, err := svc.Create(ctx, s.tenantID, s.buyer.ID, orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, s.tenantID, actorOf(s.buyer), cancelled.ID)
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, s.tenantID, other.ID, orderInput(OrderLineInput{ProductID: hoodie.ID, Quantity: 2}))
	require.NoError(t, err)

	page, err := svc.List(ctx, s.tenantID, s.buyer.ID, ListOrdersInput{Pagination: shared.NewPagination(1, 2)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasNext())

	status := trade.OrderStatusCancelled
	page, err = svc.List(ctx, s.tenantID, s.buyer.ID, ListOrdersInput{Status: &status, Pagination: shared.NewPagination(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	mine, err := svc.Stats(ctx, s.tenantID, actorOf(s.buyer))
	require.NoError(t, err)
	assert.Equal(t, int64(4), mine.TotalOrders)
	assert.Equal(t, int64(3), mine.ByStatus["pending"])
	assert.Equal(t, int64(1), mine.ByStatus["cancelled"])
	assert.Equal(t, int64(0), mine.ByStatus["delivered"])
	assert.True(t, decimal.NewFromInt(300000).Equal(mine.TotalSpent))

	global, err := svc.Stats(ctx, s.tenantID, actorOf(s.admin))
	require.NoError(t, err)
	assert.Equal(t, int64(5), global.TotalOrders)
	assert.True(t, decimal.NewFromInt(500000).Equal(global.TotalSpent))

	all, err := svc.AdminList(ctx, s.tenantID, ListOrdersInput{UserID: &other.ID, Pagination: shared.NewPagination(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), all.Total)
}

func TestMergeLines(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged, err := mergeLines([]OrderLineInput{{a, 1}, {b, 2}, {a, 3}})
	require.NoError(t, err)
	assert.Equal(t, []OrderLineInput{{a, 4}, {b, 2}}, merged)

	_, err = mergeLines([]OrderLineInput{{a, 0}})
	assert.Error(t, err)
}
