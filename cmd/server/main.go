package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	_ "github.com/unimerch/backend/docs"
	catalogapp "github.com/unimerch/backend/internal/application/catalog"
	financeapp "github.com/unimerch/backend/internal/application/finance"
	identityapp "github.com/unimerch/backend/internal/application/identity"
	"github.com/unimerch/backend/internal/application/media"
	"github.com/unimerch/backend/internal/application/notification"
	reportapp "github.com/unimerch/backend/internal/application/report"
	reviewapp "github.com/unimerch/backend/internal/application/review"
	tradeapp "github.com/unimerch/backend/internal/application/trade"
	"github.com/unimerch/backend/internal/domain/catalog"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/infrastructure/auth"
	"github.com/unimerch/backend/internal/infrastructure/cache"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"github.com/unimerch/backend/internal/infrastructure/email"
	"github.com/unimerch/backend/internal/infrastructure/event"
	"github.com/unimerch/backend/internal/infrastructure/logger"
	"github.com/unimerch/backend/internal/infrastructure/payment"
	"github.com/unimerch/backend/internal/infrastructure/persistence"
	"github.com/unimerch/backend/internal/infrastructure/storage"
	"github.com/unimerch/backend/internal/infrastructure/telemetry"
	"github.com/unimerch/backend/internal/interfaces/http/handler"
	"github.com/unimerch/backend/internal/interfaces/http/middleware"
	"github.com/unimerch/backend/internal/interfaces/http/router"
)

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --parseInternal

//	@title			UniMerch API
//	@version		1.0
//	@description	Multi-tenant university merchandise store: catalog, cart, orders, payments and reviews.

//	@contact.name	API Support
//	@contact.email	support@unimerch.example.com

//	@license.name	MIT

//	@host		localhost:8080
//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout = 30 * time.Second
	// room for multipart headers and form fields around the files
	multipartOverhead = 1 << 20
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := &logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	}
	bootLog := logger.New(logCfg)

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.App.Version, bootLog)
	if err != nil {
		return fmt.Errorf("start telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// application logs also flow to the collector when telemetry exports them
	log := logger.New(logCfg, tel.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	defer func() { _ = log.Sync() }()

	log.Info("Starting UniMerch backend",
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	defaultTenant, err := uuid.Parse(cfg.App.DefaultTenantID)
	if err != nil {
		return fmt.Errorf("app.default_tenant_id: %w", err)
	}
	if cfg.Auth.BcryptCost > 0 {
		identity.PasswordCost = cfg.Auth.BcryptCost
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.InstrumentDB(db.DB, cfg.Database.DBName); err != nil {
			log.Warn("Database tracing not enabled", zap.Error(err))
		}
	}
	if db.Driver == "sqlite" {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			return err
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	redisClient := cache.Connect(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
	}
	stores := newStores(redisClient)
	defer func() {
		_ = stores.idempotency.Close()
		_ = stores.blacklist.Close()
	}()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	assetRepo := persistence.NewGormAssetRepository(db.DB)
	statsRepo := persistence.NewGormStatsRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Outbound adapters
	mailer, err := email.New(cfg.Email, log)
	if err != nil {
		return err
	}
	renderer := notification.NewRenderer(cfg.Email.FrontendURL, cfg.Payment.Currency, language.Vietnamese)

	objectStorage, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		return err
	}

	var (
		gateway  finance.PaymentGateway
		verifier finance.WebhookVerifier
	)
	if cfg.Payment.StripeEnabled() {
		stripeGateway, err := payment.NewStripeGateway(cfg.Payment, log)
		if err != nil {
			return err
		}
		gateway, verifier = stripeGateway, stripeGateway
		log.Info("Stripe payments enabled")
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(notification.NewOrderPlacedHandler(userRepo, orderRepo, mailer, renderer, log))
	meter := tel.Meter.Meter()
	shopMetrics, err := telemetry.NewShopMetrics(meter)
	if err != nil {
		return err
	}
	eventBus.Subscribe(shopMetrics)
	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, stores.blacklist, stores.resets, mailer, renderer, eventBus,
		identityapp.AuthServiceConfig{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockDuration:     cfg.Auth.LockDuration,
			ResetTokenTTL:    cfg.Auth.ResetTokenTTL,
		}, log)
	userService := identityapp.NewUserService(userRepo, stores.blacklist, jwtService, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, log)
	searchService := catalogapp.NewSearchService(productService, productRepo, stores.searchTerms, log)
	cartService := tradeapp.NewCartService(cartRepo, productRepo, cfg.Payment.Currency, log)
	orderService := tradeapp.NewOrderService(scope, orderRepo, stores.idempotency, eventBus, cfg.Auth.IdempotencyTTL, log)
	paymentService := financeapp.NewPaymentService(financeapp.PaymentServiceConfig{
		Scope:       scope,
		PaymentRepo: paymentRepo,
		OrderRepo:   orderRepo,
		Gateway:     gateway,
		Verifier:    verifier,
		Events:      eventBus,
		Logger:      log,
	})
	reviewService := reviewapp.NewReviewService(reviewRepo, productRepo, orderRepo, log)
	statsService := reportapp.NewStatsService(statsRepo, log)
	uploadService := media.NewUploadService(objectStorage, assetRepo, productService, categoryService, userRepo, media.Config{
		PublicBaseURL:     cfg.Storage.PublicBaseURL,
		MaxFileSize:       cfg.Storage.MaxFileSize,
		PresignExpiration: cfg.Storage.PresignExpiration,
	}, log)

	checks := []handler.HealthCheck{{Name: "database", Critical: true, Check: db.Ping}}
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	handlers := router.Handlers{
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
		Health:   handler.NewHealthHandler(cfg.App.Version, checks...),
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engineCfg := router.EngineConfig{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing:        tel.Tracer.IsEnabled(),
		Profiling:      tel.Profiler != nil,
		CORS:           corsConfig(cfg.HTTP),
		Security:       middleware.DefaultSecurityConfig(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		MaxUploadSize:  media.MaxProductImages*cfg.Storage.MaxFileSize + multipartOverhead,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		DefaultTenant:  defaultTenant,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			Blacklist:  stores.blacklist,
			Logger:     log,
		},
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
	}
	engineCfg.Security.HSTSEnabled = cfg.App.IsProduction()

	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled {
		httpMetrics, err := telemetry.NewHTTPMetrics(meter)
		if err != nil {
			return err
		}
		engineCfg.Metrics = httpMetrics.Middleware()
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
		engineCfg.RateLimiter = limiter
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Close()
		engineCfg.AuthRateLimiter = authLimiter
	}

	engine, err := router.NewEngine(engineCfg, handlers)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited gracefully")
	return nil
}

type cacheStores struct {
	blacklist   auth.TokenBlacklist
	resets      identity.PasswordResetStore
	idempotency shared.IdempotencyStore
	searchTerms catalog.SearchTermStore
}

// newStores picks the Redis implementations when a client is available
func newStores(client *redis.Client) cacheStores {
	if client == nil {
		return cacheStores{
			blacklist:   auth.NewInMemoryTokenBlacklist(time.Minute),
			resets:      auth.NewInMemoryResetStore(),
			idempotency: cache.NewInMemoryIdempotencyStore(time.Minute),
			searchTerms: cache.NewInMemorySearchTermStore(),
		}
	}
	return cacheStores{
		blacklist:   auth.NewRedisTokenBlacklist(client),
		resets:      auth.NewRedisResetStore(client),
		idempotency: cache.NewRedisIdempotencyStore(client),
		searchTerms: cache.NewRedisSearchTermStore(client),
	}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
