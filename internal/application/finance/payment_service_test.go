package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"github.com/unimerch/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Refund(ctx context.Context, req finance.RefundRequest) (*finance.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.RefundResult), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, signature string) (*finance.GatewayEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.GatewayEvent), args.Error(1)
}

type paymentFixture struct {
	db       *gorm.DB
	tenantID uuid.UUID
	buyer    *identity.User
	admin    *identity.User
	product  *catalog.Product
	gateway  *MockGateway
	svc      *PaymentService
	orders   trade.OrderRepository
	payments finance.PaymentRepository
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	identity.PasswordCost = bcrypt.MinCost

	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, persistence.AutoMigrate(database.DB))

	f := &paymentFixture{
		db:       database.DB,
		tenantID: uuid.New(),
		gateway:  new(MockGateway),
		orders:   persistence.NewGormOrderRepository(database.DB),
		payments: persistence.NewGormPaymentRepository(database.DB),
	}
	users := persistence.NewGormUserRepository(f.db)
	seller := f.newUser(t, users, "campus_store", identity.RoleSeller)
	f.buyer = f.newUser(t, users, "alice", identity.RoleUser)
	f.admin = f.newUser(t, users, "root_admin", identity.RoleAdmin)

	category, err := catalog.NewCategory(f.tenantID, "Hoodies", "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(f.db).Create(t.Context(), category))
	f.product, err = catalog.NewProduct(f.tenantID, seller.ID, catalog.ProductDetails{
		Name: "Hoodie", Price: decimal.NewFromInt(150000), CategoryID: category.ID,
	}, 50)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(f.db).Create(t.Context(), f.product))

	f.svc = NewPaymentService(PaymentServiceConfig{
		Scope:       persistence.NewGormTransactionScope(f.db),
		PaymentRepo: f.payments,
		OrderRepo:   f.orders,
		Gateway:     f.gateway,
		Verifier:    f.gateway,
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *paymentFixture) newUser(t *testing.T, repo identity.UserRepository, name string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(f.tenantID, name, name+"@uni.edu", "Secret123", role)
	require.NoError(t, err)
	require.NoError(t, repo.Create(t.Context(), u))
	return u
}

func (f *paymentFixture) order(t *testing.T, qty int) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(f.tenantID, f.buyer.ID, "12 University Road, Hanoi", trade.PaymentMethodCreditCard, "")
	require.NoError(t, err)
	require.NoError(t, o.AddItem(f.product.ID, f.product.SellerID, f.product.Name, f.product.Price, qty))
	require.NoError(t, o.Place())
	require.NoError(t, f.orders.Create(t.Context(), o))
	return o
}

func (f *paymentFixture) pay(t *testing.T, order *trade.Order, txID string) *PaymentDTO {
	t.Helper()
	p, err := f.svc.Create(t.Context(), f.tenantID, actor(f.buyer), CreatePaymentInput{
		OrderID: order.ID, PaymentMethod: trade.PaymentMethodCreditCard, TransactionID: txID,
	})
	require.NoError(t, err)
	return p
}

func (f *paymentFixture) reloadOrder(t *testing.T, id uuid.UUID) *trade.Order {
	t.Helper()
	o, err := f.orders.FindByID(t.Context(), f.tenantID, id)
	require.NoError(t, err)
	return o
}

func actor(u *identity.User) identity.Actor {
	return identity.Actor{UserID: u.ID, Role: u.Role}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	return derr.Code
}

func TestPaymentService_Create(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := t.Context()
	order := f.order(t, 2)

	p := f.pay(t, order, "")
	assert.Equal(t, string(finance.PaymentStatusPending), p.Status)
	assert.True(t, decimal.NewFromInt(300000).Equal(p.Amount))
	assert.Equal(t, f.buyer.ID, p.UserID)

	t.Run("only the buyer or an admin can pay", func(t *testing.T) {
		stranger := identity.Actor{UserID: uuid.New(), Role: identity.RoleUser}
		_, err := f.svc.Create(ctx, f.tenantID, stranger, CreatePaymentInput{OrderID: order.ID, PaymentMethod: trade.PaymentMethodPaypal})
		assert.ErrorIs(t, err, shared.ErrForbidden)

		_, err = f.svc.Create(ctx, f.tenantID, actor(f.admin), CreatePaymentInput{OrderID: order.ID, PaymentMethod: trade.PaymentMethodPaypal})
		assert.NoError(t, err)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.tenantID, actor(f.buyer), CreatePaymentInput{OrderID: uuid.New(), PaymentMethod: trade.PaymentMethodPaypal})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("completed orders cannot be paid twice", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), p.ID, finance.PaymentStatusCompleted, "txn-1")
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, f.tenantID, actor(f.buyer), CreatePaymentInput{OrderID: order.ID, PaymentMethod: trade.PaymentMethodPaypal})
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("cancelled orders cannot be paid", func(t *testing.T) {
		cancelled := f.order(t, 1)
		require.NoError(t, cancelled.Cancel())
		require.NoError(t, f.orders.Update(ctx, cancelled))

		_, err := f.svc.Create(ctx, f.tenantID, actor(f.buyer), CreatePaymentInput{OrderID: cancelled.ID, PaymentMethod: trade.PaymentMethodPaypal})
		assert.Equal(t, "ORDER_CANCELLED", codeOf(t, err))
	})
}

func TestPaymentService_UpdateStatus(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := t.Context()
	order := f.order(t, 1)
	p := f.pay(t, order, "")

	_, err := f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), p.ID, finance.PaymentStatusRefunded, "")
	assert.Equal(t, "INVALID_STATE", codeOf(t, err))

	updated, err := f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), p.ID, finance.PaymentStatusCompleted, "txn-42")
	require.NoError(t, err)
	assert.Equal(t, "txn-42", updated.TransactionID)
	assert.NotNil(t, updated.PaidAt)
	assert.Equal(t, trade.OrderStatusProcessing, f.reloadOrder(t, order.ID).Status)

	_, err = f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), p.ID, finance.PaymentStatusFailed, "")
	assert.Equal(t, "INVALID_STATE", codeOf(t, err))

	got, err := f.svc.Get(ctx, f.tenantID, actor(f.admin), p.ID)
	require.NoError(t, err)
	assert.Equal(t, string(finance.PaymentStatusCompleted), got.Status)

	_, err = f.svc.Get(ctx, f.tenantID, identity.Actor{UserID: uuid.New(), Role: identity.RoleSeller}, p.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	list, err := f.svc.ForOrder(ctx, f.tenantID, actor(f.buyer), order.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPaymentService_Refund(t *testing.T) {
	t.Run("refunds stripe intents at the gateway and cancels the order", func(t *testing.T) {
		f := newPaymentFixture(t)
		ctx := t.Context()
		order := f.order(t, 1)
		p := f.pay(t, order, "pi_123")
		_, err := f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), p.ID, finance.PaymentStatusCompleted, "")
		require.NoError(t, err)

		f.gateway.On("Refund", mock.Anything, mock.MatchedBy(func(req finance.RefundRequest) bool {
			return req.TransactionID == "pi_123" && req.IdempotencyKey == "refund-"+p.ID.String()
		})).Return(&finance.RefundResult{RefundID: "re_1", Status: "succeeded"}, nil).Once()

		refunded, err := f.svc.Refund(ctx, f.tenantID, p.ID, "")
		require.NoError(t, err)
		assert.Equal(t, string(finance.PaymentStatusRefunded), refunded.Status)
		assert.Equal(t, finance.DefaultRefundReason, refunded.RefundReason)
		assert.NotNil(t, refunded.RefundedAt)
		assert.Equal(t, trade.OrderStatusCancelled, f.reloadOrder(t, order.ID).Status)
		f.gateway.AssertExpectations(t)
	})

	t.Run("a gateway failure leaves the payment completed", func(t *testing.T) {
		f := newPaymentFixture(t)
		ctx := t.Context()
		p := f.pay(t, f.order(t, 1), "pi_456")
		_, err := f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), p.ID, finance.PaymentStatusCompleted, "")
		require.NoError(t, err)

		f.gateway.On("Refund", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined")).Once()

		_, err = f.svc.Refund(ctx, f.tenantID, p.ID, "damaged")
		assert.Equal(t, "REFUND_FAILED", codeOf(t, err))

		got, err := f.svc.Get(ctx, f.tenantID, actor(f.admin), p.ID)
		require.NoError(t, err)
		assert.Equal(t, string(finance.PaymentStatusCompleted), got.Status)
	})

	t.Run("non stripe payments skip the gateway", func(t *testing.T) {
		f := newPaymentFixture(t)
		ctx := t.Context()
		p := f.pay(t, f.order(t, 1), "bank-789")

		_, err := f.svc.Refund(ctx, f.tenantID, p.ID, "")
		assert.Equal(t, "INVALID_STATE", codeOf(t, err))

		_, err = f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), p.ID, finance.PaymentStatusCompleted, "")
		require.NoError(t, err)
		refunded, err := f.svc.Refund(ctx, f.tenantID, p.ID, "wrong size")
		require.NoError(t, err)
		assert.Equal(t, "wrong size", refunded.RefundReason)
		f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := t.Context()
	order := f.order(t, 1)
	p := f.pay(t, order, "pi_webhook")

	f.gateway.On("VerifyWebhook", []byte("bad"), "sig").Return(nil, finance.ErrInvalidSignature).Once()
	err := f.svc.HandleWebhook(ctx, []byte("bad"), "sig")
	assert.ErrorIs(t, err, finance.ErrInvalidSignature)

	f.gateway.On("VerifyWebhook", []byte("unknown"), "sig").
		Return(&finance.GatewayEvent{Type: finance.GatewayEventSucceeded, TransactionID: "pi_other"}, nil).Once()
	assert.NoError(t, f.svc.HandleWebhook(ctx, []byte("unknown"), "sig"))

	f.gateway.On("VerifyWebhook", []byte("ok"), "sig").
		Return(&finance.GatewayEvent{Type: finance.GatewayEventSucceeded, TransactionID: "pi_webhook"}, nil).Twice()
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("ok"), "sig"))
	// redelivery is a no-op
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("ok"), "sig"))

	got, err := f.svc.Get(ctx, f.tenantID, actor(f.buyer), p.ID)
	require.NoError(t, err)
	assert.Equal(t, string(finance.PaymentStatusCompleted), got.Status)
	assert.Equal(t, trade.OrderStatusProcessing, f.reloadOrder(t, order.ID).Status)

	f.gateway.AssertExpectations(t)
}

func TestPaymentService_WebhookWithoutStripe(t *testing.T) {
	svc := NewPaymentService(PaymentServiceConfig{})
	err := svc.HandleWebhook(t.Context(), []byte("{}"), "")
	assert.Equal(t, "GATEWAY_DISABLED", codeOf(t, err))
}

func TestPaymentService_StatsAndRevenue(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := t.Context()

	completed := f.pay(t, f.order(t, 1), "")
	_, err := f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), completed.ID, finance.PaymentStatusCompleted, "")
	require.NoError(t, err)
	failed := f.pay(t, f.order(t, 2), "")
	_, err = f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), failed.ID, finance.PaymentStatusFailed, "")
	require.NoError(t, err)
	f.pay(t, f.order(t, 3), "")
	refunded := f.pay(t, f.order(t, 4), "")
	_, err = f.svc.UpdateStatus(ctx, f.tenantID, actor(f.buyer), refunded.ID, finance.PaymentStatusCompleted, "")
	require.NoError(t, err)
	_, err = f.svc.Refund(ctx, f.tenantID, refunded.ID, "")
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalPayments)
	assert.Equal(t, int64(1), stats.ByStatus["completed"].Count)
	assert.True(t, decimal.NewFromInt(150000).Equal(stats.TotalRevenue))
	assert.True(t, decimal.NewFromInt(600000).Equal(stats.RefundedAmount))
	assert.Equal(t, 25.0, stats.SuccessRate)

	rev, err := f.svc.Revenue(ctx, f.tenantID, "", 0)
	require.NoError(t, err)
	require.Len(t, rev.Buckets, 1)
	assert.Equal(t, int64(4), rev.Buckets[0].TotalTransactions)
	assert.Equal(t, int64(1), rev.Buckets[0].SuccessfulTransactions)
	assert.True(t, decimal.NewFromInt(150000).Equal(rev.Summary.TotalRevenue))
	assert.Equal(t, 1, rev.Summary.TotalPeriods)

	_, err = f.svc.Revenue(ctx, f.tenantID, "fortnight", 0)
	assert.Equal(t, "INVALID_PERIOD", codeOf(t, err))
	_, err = f.svc.Revenue(ctx, f.tenantID, "day", 366)
	assert.Equal(t, "INVALID_LIMIT", codeOf(t, err))

	// payments older than the window are excluded
	f.svc.now = func() time.Time { return time.Now().AddDate(0, 0, 10) }
	rev, err = f.svc.Revenue(ctx, f.tenantID, "day", 5)
	require.NoError(t, err)
	assert.Empty(t, rev.Buckets)
}
