package trade

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"github.com/unimerch/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testAddress = "12 University Road, Hanoi"

// shop is a migrated sqlite database with a seller, a buyer and a category
type shop struct {
	db       *gorm.DB
	tenantID uuid.UUID
	seller   *identity.User
	buyer    *identity.User
	admin    *identity.User
	category *catalog.Category

	products catalog.ProductRepository
	orders   trade.OrderRepository
	cart     trade.CartRepository
}

func newShop(t *testing.T) *shop {
	t.Helper()
	identity.PasswordCost = bcrypt.MinCost

	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, persistence.AutoMigrate(database.DB))

	s := &shop{
		db:       database.DB,
		tenantID: uuid.New(),
		products: persistence.NewGormProductRepository(database.DB),
		orders:   persistence.NewGormOrderRepository(database.DB),
		cart:     persistence.NewGormCartRepository(database.DB),
	}
	s.seller = s.user(t, "campus_store", "store@uni.edu", identity.RoleSeller)
	s.buyer = s.user(t, "alice", "alice@uni.edu", identity.RoleUser)
	s.admin = s.user(t, "root_admin", "admin@uni.edu", identity.RoleAdmin)

	category, err := catalog.NewCategory(s.tenantID, "Hoodies", "Warm things")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(s.db).Create(t.Context(), category))
	s.category = category
	return s
}

func (s *shop) user(t *testing.T, username, email string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(s.tenantID, username, email, "Secret123", role)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(s.db).Create(t.Context(), u))
	return u
}

func (s *shop) product(t *testing.T, name string, price int64, quantity int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(s.tenantID, s.seller.ID, catalog.ProductDetails{
		Name:       name,
		Price:      decimal.NewFromInt(price),
		CategoryID: s.category.ID,
	}, quantity)
	require.NoError(t, err)
	require.NoError(t, s.products.Create(t.Context(), p))
	return p
}

func (s *shop) reload(t *testing.T, p *catalog.Product) *catalog.Product {
	t.Helper()
	fresh, err := s.products.FindByID(t.Context(), s.tenantID, p.ID)
	require.NoError(t, err)
	return fresh
}

func (s *shop) cartService() *CartService {
	return NewCartService(s.cart, s.products, "VND", zap.NewNop())
}

func actorOf(u *identity.User) identity.Actor {
	return identity.Actor{UserID: u.ID, Role: u.Role}
}
