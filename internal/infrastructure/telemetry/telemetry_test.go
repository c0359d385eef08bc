package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/finance"
	"github.com/unimerch/backend/internal/domain/shared"
	"github.com/unimerch/backend/internal/domain/trade"
	"github.com/unimerch/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestSetup_Disabled(t *testing.T) {
	tel, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, "test", zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tel.Tracer.IsEnabled())
	assert.NotNil(t, tel.Meter.Meter())
	assert.IsType(t, zapcore.NewNopCore(), tel.Logs.ZapCore("test", zapcore.InfoLevel))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, samplerFor(0.25).Description(), "ParentBased")
}

func TestStartProfiler_RequiresAddress(t *testing.T) {
	_, err := StartProfiler("shop", "", zap.NewNop())
	require.Error(t, err)

	var p *Profiler
	assert.NoError(t, p.Stop())
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "test"))

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "test", logs.All()[0].ContextMap()["component"])
	assert.False(t, core.Enabled(zapcore.DebugLevel))
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewHTTPMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/products/1", "/api/products/2", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	metrics := collect(t, reader)
	sum, ok := metrics["http.server.request.count"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("http.route"))
		counts[route.AsString()] = dp.Value
	}
	assert.Equal(t, int64(2), counts["/api/products/:id"])
	assert.Equal(t, int64(1), counts["unmatched"])

	hist, ok := metrics["http.server.request.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2)
}

func TestShopMetrics_Handle(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewShopMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	tenantID := uuid.New()
	ctx := context.Background()
	placed := &trade.OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(trade.EventTypeOrderPlaced, uuid.New(), tenantID),
		OrderNumber:     "ORD-20260101-ABCDEF12",
		TotalAmount:     decimal.NewFromInt(150000),
		ItemCount:       2,
		PaymentMethod:   trade.PaymentMethodCashOnDelivery,
	}
	completed := &finance.PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(finance.EventTypePaymentCompleted, uuid.New(), tenantID),
	}

	require.NoError(t, m.Handle(ctx, placed))
	require.NoError(t, m.Handle(ctx, placed))
	require.NoError(t, m.Handle(ctx, completed))

	metrics := collect(t, reader)

	orders := metrics["shop.orders.placed"].Data.(metricdata.Sum[int64])
	require.Len(t, orders.DataPoints, 1)
	assert.Equal(t, int64(2), orders.DataPoints[0].Value)
	method, _ := orders.DataPoints[0].Attributes.Value("payment_method")
	assert.Equal(t, "cash_on_delivery", method.AsString())

	amount := metrics["shop.orders.amount"].Data.(metricdata.Sum[float64])
	assert.InDelta(t, 300000, amount.DataPoints[0].Value, 0.001)

	payments := metrics["shop.payments.completed"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(1), payments.DataPoints[0].Value)

	assert.ElementsMatch(t, []string{"OrderPlaced", "PaymentCompleted", "PaymentRefunded"}, m.EventTypes())
}
