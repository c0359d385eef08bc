package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	appcatalog "github.com/unimerch/backend/internal/application/catalog"
	appfinance "github.com/unimerch/backend/internal/application/finance"
	appidentity "github.com/unimerch/backend/internal/application/identity"
	"github.com/unimerch/backend/internal/application/media"
	"github.com/unimerch/backend/internal/application/notification"
	"github.com/unimerch/backend/internal/application/report"
	"github.com/unimerch/backend/internal/application/review"
	apptrade "github.com/unimerch/backend/internal/application/trade"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/infrastructure/auth"
	"github.com/unimerch/backend/internal/infrastructure/cache"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"github.com/unimerch/backend/internal/infrastructure/email"
	"github.com/unimerch/backend/internal/infrastructure/persistence"
	"github.com/unimerch/backend/internal/infrastructure/storage"
	"github.com/unimerch/backend/internal/interfaces/http/handler"
	"github.com/unimerch/backend/internal/interfaces/http/middleware"
)

const testPassword = "Secret123"

type testApp struct {
	engine   *gin.Engine
	database *persistence.Database
	tenantID uuid.UUID
}

type appOption func(*EngineConfig)

// newTestApp wires every service against an in-memory sqlite database
func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	identity.PasswordCost = bcrypt.MinCost
	log := zap.NewNop()

	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, persistence.AutoMigrate(database.DB))
	db := database.DB

	users := persistence.NewGormUserRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	products := persistence.NewGormProductRepository(db)
	orders := persistence.NewGormOrderRepository(db)
	payments := persistence.NewGormPaymentRepository(db)
	reviews := persistence.NewGormReviewRepository(db)
	scope := persistence.NewGormTransactionScope(db)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-key-32-characters",
		RefreshSecret:          "router-test-refresh-secret-32-chars!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "router-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist(time.Minute)
	t.Cleanup(func() { _ = blacklist.Close() })
	idempotency := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idempotency.Close() })

	renderer := notification.NewRenderer("http://localhost:3000", "VND", language.Vietnamese)
	mailer := email.NewLogMailer(log)

	productService := appcatalog.NewProductService(products, categories, log)
	categoryService := appcatalog.NewCategoryService(categories, products, log)
	searchService := appcatalog.NewSearchService(productService, products, cache.NewInMemorySearchTermStore(), log)
	authService := appidentity.NewAuthService(users, jwtService, blacklist, auth.NewInMemoryResetStore(),
		mailer, renderer, nil, appidentity.DefaultAuthServiceConfig(), log)
	userService := appidentity.NewUserService(users, blacklist, jwtService, log)
	cartService := apptrade.NewCartService(persistence.NewGormCartRepository(db), products, "VND", log)
	orderService := apptrade.NewOrderService(scope, orders, idempotency, nil, time.Hour, log)
	paymentService := appfinance.NewPaymentService(appfinance.PaymentServiceConfig{
		Scope:       scope,
		PaymentRepo: payments,
		OrderRepo:   orders,
		Logger:      log,
	})
	reviewService := review.NewReviewService(reviews, products, orders, log)
	statsService := report.NewStatsService(persistence.NewGormStatsRepository(db), log)
	uploadService := media.NewUploadService(
		storage.NewLocalObjectStorageFs(afero.NewMemMapFs(), "http://localhost:8080/api/upload/images"),
		persistence.NewGormAssetRepository(db), productService, categoryService, users, media.Config{}, log)

	h := Handlers{
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(userService, orderService),
		Category: handler.NewCategoryHandler(categoryService, productService, statsService),
		Product:  handler.NewProductHandler(productService, reviewService),
		Search:   handler.NewSearchHandler(searchService, categoryService, userService),
		Cart:     handler.NewCartHandler(cartService),
		Order:    handler.NewOrderHandler(orderService, paymentService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Review:   handler.NewReviewHandler(reviewService),
		Stats:    handler.NewStatsHandler(statsService),
		Upload:   handler.NewUploadHandler(uploadService),
		Health: handler.NewHealthHandler("test", handler.HealthCheck{
			Name:     "database",
			Critical: true,
			Check:    database.Ping,
		}),
	}

	app := &testApp{database: database, tenantID: uuid.New()}
	cfg := EngineConfig{
		Logger:         log,
		ServiceName:    "router-test",
		CORS:           middleware.DefaultCORSConfig(),
		Security:       middleware.DefaultSecurityConfig(),
		MaxBodySize:    1 << 20,
		MaxUploadSize:  10 << 20,
		RequestTimeout: 10 * time.Second,
		DefaultTenant:  app.tenantID,
		JWT:            middleware.JWTMiddlewareConfig{JWTService: jwtService, Blacklist: blacklist, Logger: log},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	app.engine, err = NewEngine(cfg, h)
	require.NoError(t, err)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User        struct {
		ID uuid.UUID `json:"id"`
	} `json:"user"`
}

func (a *testApp) register(t *testing.T, username, role string) session {
	t.Helper()
	w, env := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username":  username,
		"email":     username + "@uni.edu",
		"password":  testPassword,
		"full_name": "Test " + username,
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[session](t, env.Data)
}

func (a *testApp) admin(t *testing.T) session {
	t.Helper()
	u, err := identity.NewUser(a.tenantID, "root_admin", "admin@uni.edu", testPassword, identity.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(a.database.DB).Create(t.Context(), u))

	w, env := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "root_admin", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[session](t, env.Data)
}

type created struct {
	ID       uuid.UUID `json:"id"`
	Quantity int       `json:"quantity"`
}

func TestEngine_OrderFlow(t *testing.T) {
	app := newTestApp(t)
	seller := app.register(t, "campus_store", "seller")
	buyer := app.register(t, "alice", "user")

	w, env := app.do(t, http.MethodPost, "/api/categories", seller.AccessToken, map[string]string{"name": "Hoodies"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	category := decode[created](t, env.Data)

	w, env = app.do(t, http.MethodPost, "/api/products", seller.AccessToken, map[string]any{
		"name":        "University Hoodie",
		"price":       "350000",
		"quantity":    5,
		"category_id": category.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[created](t, env.Data)

	w, env = app.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	order := map[string]any{
		"items":            []map[string]any{{"product_id": product.ID, "quantity": 2}},
		"shipping_address": "12 University Road, Hanoi",
		"payment_method":   "cash_on_delivery",
	}
	w, env = app.do(t, http.MethodPost, "/api/orders", buyer.AccessToken, order, handler.IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[created](t, env.Data)

	t.Run("same idempotency key replays the order", func(t *testing.T) {
		w, env := app.do(t, http.MethodPost, "/api/orders", buyer.AccessToken, order, handler.IdempotencyKeyHeader, "checkout-1")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "true", w.Header().Get(handler.IdempotentReplayedHeader))
		assert.Equal(t, first.ID, decode[created](t, env.Data).ID)
	})

	t.Run("stock was taken once", func(t *testing.T) {
		w, env := app.do(t, http.MethodGet, "/api/products/"+product.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, decode[created](t, env.Data).Quantity)
	})

	t.Run("ordering more than the stock fails", func(t *testing.T) {
		greedy := map[string]any{
			"items":            []map[string]any{{"product_id": product.ID, "quantity": 4}},
			"shipping_address": "12 University Road, Hanoi",
			"payment_method":   "paypal",
		}
		w, env := app.do(t, http.MethodPost, "/api/orders", buyer.AccessToken, greedy)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)
	})

	t.Run("another buyer cannot read the order", func(t *testing.T) {
		other := app.register(t, "mallory", "user")
		w, _ := app.do(t, http.MethodGet, "/api/orders/"+first.ID.String(), other.AccessToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("seller sees the order", func(t *testing.T) {
		w, env := app.do(t, http.MethodGet, "/api/orders/seller/"+seller.User.ID.String(), seller.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, int64(1), env.Meta.Total)
	})
}

func TestEngine_Guards(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "alice", "user")
	admin := app.admin(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   string
	}{
		{"cart needs a token", http.MethodGet, "/api/cart", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage token", http.MethodGet, "/api/cart", "not-a-jwt", http.StatusUnauthorized, ""},
		{"buyer reads own cart", http.MethodGet, "/api/cart", buyer.AccessToken, http.StatusOK, ""},
		{"dashboard is admin only", http.MethodGet, "/api/stats/dashboard", buyer.AccessToken, http.StatusForbidden, "FORBIDDEN"},
		{"admin reads dashboard", http.MethodGet, "/api/stats/dashboard", admin.AccessToken, http.StatusOK, ""},
		{"buyers cannot create products", http.MethodPost, "/api/products", buyer.AccessToken, http.StatusForbidden, "FORBIDDEN"},
		{"admin lists users", http.MethodGet, "/api/users", admin.AccessToken, http.StatusOK, ""},
		{"buyer cannot list users", http.MethodGet, "/api/users", buyer.AccessToken, http.StatusForbidden, "FORBIDDEN"},
		{"public category list", http.MethodGet, "/api/categories", "", http.StatusOK, ""},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound, "ROUTE_NOT_FOUND"},
		{"malformed id", http.MethodGet, "/api/products/123", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"webhook without stripe", http.MethodPost, "/api/webhooks/stripe", "", http.StatusServiceUnavailable, "GATEWAY_DISABLED"},
		{"swagger disabled", http.MethodGet, "/swagger/index.html", "", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := app.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.code, env.Error.Code)
			}
		})
	}
}

func TestEngine_Logout(t *testing.T) {
	app := newTestApp(t)
	buyer := app.register(t, "alice", "user")

	w, _ := app.do(t, http.MethodGet, "/api/auth/me", buyer.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/auth/logout", buyer.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := app.do(t, http.MethodGet, "/api/auth/me", buyer.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TOKEN_REVOKED", env.Error.Code)

	w, env = app.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": buyer.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TOKEN_REVOKED", env.Error.Code)
}

func TestEngine_Health(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/health", "/api/health"} {
		w, env := app.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		health := decode[handler.HealthResponse](t, env.Data)
		assert.Equal(t, "ok", health.Status)
		assert.Equal(t, "up", health.Checks["database"])
		assert.Equal(t, "test", health.Version)
	}

	w, _ := app.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, app.database.Close())
	w, env := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode[handler.HealthResponse](t, env.Data).Status)
}

func TestEngine_AuthRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)
	app := newTestApp(t, func(cfg *EngineConfig) { cfg.AuthRateLimiter = limiter })

	login := map[string]string{"login": "nobody", "password": testPassword}
	for range 2 {
		w, _ := app.do(t, http.MethodPost, "/api/auth/login", "", login)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, env := app.do(t, http.MethodPost, "/api/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)

	// the limit covers credential endpoints only
	w, _ = app.do(t, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_DegradedDependency(t *testing.T) {
	h := handler.NewHealthHandler("1.2.3",
		handler.HealthCheck{Name: "database", Critical: true, Check: func(context.Context) error { return nil }},
		handler.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)
	engine := gin.New()
	engine.GET("/health", h.Health)

	w := serve(engine, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	health := decode[handler.HealthResponse](t, env.Data)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "up", health.Checks["database"])
	assert.Equal(t, "down: connection refused", health.Checks["redis"])
}
