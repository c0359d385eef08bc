package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/unimerch/backend/internal/domain/identity"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func newTracedRouter(cfg TracingConfig, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Tracing(cfg), SpanAttributes(), Tenant(defaultTenant))
	r.GET("/products/:id", handler)
	r.GET("/health", okHandler)
	return r
}

func TestTracing(t *testing.T) {
	cfg := TracingConfig{ServiceName: "test-service", Enabled: true, SkipPaths: []string{"/health"}}

	t.Run("span carries request, tenant and user", func(t *testing.T) {
		sr := setupTestTracer(t)
		userID := uuid.New()
		r := newTracedRouter(cfg, func(c *gin.Context) {
			c.Set(ActorKey, identity.Actor{UserID: userID, Role: identity.RoleSeller})
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/products/42", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Name(), "/products/:id")

		attrs := spanAttrs(spans[0])
		assert.Equal(t, "req-1", attrs["request_id"].AsString())
		assert.Equal(t, defaultTenant.String(), attrs["tenant_id"].AsString())
		assert.Equal(t, userID.String(), attrs["user_id"].AsString())
		assert.Equal(t, "seller", attrs["user_role"].AsString())
		assert.Equal(t, codes.Unset, spans[0].Status().Code)
	})

	t.Run("client errors mark the span", func(t *testing.T) {
		sr := setupTestTracer(t)
		r := newTracedRouter(cfg, func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/missing", nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, int64(http.StatusNotFound), spanAttrs(spans[0])["http.status_code"].AsInt64())
	})

	t.Run("skipped paths are not traced", func(t *testing.T) {
		sr := setupTestTracer(t)
		r := newTracedRouter(cfg, okHandler)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sr.Ended())
	})

	t.Run("disabled passes through", func(t *testing.T) {
		sr := setupTestTracer(t)
		r := newTracedRouter(TracingConfig{Enabled: false}, okHandler)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, sr.Ended())
	})
}
