package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory sqlite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, AutoMigrate(db.DB))
	return db.DB
}

// fixture seeds a tenant with a seller, a buyer and a category
type fixture struct {
	db       *gorm.DB
	tenantID uuid.UUID
	seller   *identity.User
	buyer    *identity.User
	category *catalog.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, newTestDB(t))
}

// newFixtureOn seeds a fresh tenant into an already migrated database
func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	identity.PasswordCost = bcrypt.MinCost

	f := &fixture{db: db, tenantID: uuid.New()}
	f.seller = f.user(t, "campus_store", "store@uni.edu", identity.RoleSeller)
	f.buyer = f.user(t, "alice", "alice@uni.edu", identity.RoleUser)

	category, err := catalog.NewCategory(f.tenantID, "Hoodies", "Warm things")
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(f.db).Create(t.Context(), category))
	f.category = category
	return f
}

func (f *fixture) user(t *testing.T, username, email string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(f.tenantID, username, email, "Secret123", role)
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(f.db).Create(t.Context(), u))
	return u
}

func (f *fixture) product(t *testing.T, name string, price int64, quantity int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(f.tenantID, f.seller.ID, catalog.ProductDetails{
		Name:       name,
		Price:      decimal.NewFromInt(price),
		CategoryID: f.category.ID,
		Color:      "Navy",
		Size:       "M",
		Images:     []string{"/uploads/" + name + ".png"},
	}, quantity)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(f.db).Create(t.Context(), p))
	return p
}

// order places an order for the buyer with one unit of each product and
// walks it to status
func (f *fixture) order(t *testing.T, status trade.OrderStatus, products ...*catalog.Product) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(f.tenantID, f.buyer.ID, "12 University Road, Hanoi", trade.PaymentMethodCashOnDelivery, "")
	require.NoError(t, err)
	for _, p := range products {
		require.NoError(t, o.AddItem(p.ID, p.SellerID, p.Name, p.EffectivePrice(), 1))
	}
	require.NoError(t, o.Place())

	path := map[trade.OrderStatus][]trade.OrderStatus{
		trade.OrderStatusPending:    nil,
		trade.OrderStatusProcessing: {trade.OrderStatusProcessing},
		trade.OrderStatusShipped:    {trade.OrderStatusProcessing, trade.OrderStatusShipped},
		trade.OrderStatusDelivered:  {trade.OrderStatusProcessing, trade.OrderStatusShipped, trade.OrderStatusDelivered},
		trade.OrderStatusCancelled:  {trade.OrderStatusCancelled},
	}
	for _, next := range path[status] {
		require.NoError(t, o.TransitionTo(next))
	}
	require.NoError(t, NewGormOrderRepository(f.db).Create(t.Context(), o))
	return o
}
