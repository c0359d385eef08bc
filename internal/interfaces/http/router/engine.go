package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/unimerch/backend/internal/infrastructure/logger"
	"github.com/unimerch/backend/internal/interfaces/http/middleware"
)

// EngineConfig holds everything NewEngine needs besides the handlers
type EngineConfig struct {
	Logger         *zap.Logger
	ServiceName    string
	TrustedProxies []string

	Tracing   bool
	Profiling bool
	// Metrics records request metrics. May be nil.
	Metrics gin.HandlerFunc

	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	MaxUploadSize  int64
	RequestTimeout time.Duration
	DefaultTenant  uuid.UUID

	// RateLimiter throttles every API request per client IP. May be nil.
	RateLimiter *middleware.RateLimiter
	// AuthRateLimiter throttles the credential endpoints. May be nil.
	AuthRateLimiter *middleware.RateLimiter

	JWT     middleware.JWTMiddlewareConfig
	Swagger middleware.SwaggerConfig
}

// NewEngine builds the gin engine with the middleware stack and every route
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, err
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.Tracing,
		SkipPaths:   []string{"/health", "/health/live", "/api/health"},
	}))
	engine.Use(middleware.SpanAttributes())
	if cfg.Profiling {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics)
	}
	engine.Use(middleware.SecurityHeaders(cfg.Security))
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize, cfg.MaxUploadSize))
	engine.Use(middleware.Timeout(cfg.RequestTimeout))
	engine.Use(middleware.Tenant(cfg.DefaultTenant))
	engine.NoRoute(middleware.NoRoute())

	engine.GET("/health", h.Health.Health)
	engine.GET("/health/live", h.Health.Live)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, cfg.JWT),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	guards := Guards{
		Auth:     middleware.JWTAuth(cfg.JWT),
		Optional: middleware.OptionalJWTAuth(cfg.JWT),
	}
	if cfg.AuthRateLimiter != nil {
		guards.AuthLimit = middleware.RateLimit(cfg.AuthRateLimiter)
	}

	r := NewRouter(engine)
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	for _, group := range DomainGroups(h, guards) {
		r.Register(group)
	}
	r.Setup()

	return engine, nil
}
