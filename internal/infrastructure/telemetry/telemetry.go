// Package telemetry wires OpenTelemetry tracing, metrics and logs, and the
// optional Pyroscope profiler.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unimerch/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Telemetry owns every provider started for the process
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	logger   *zap.Logger
}

// Setup starts the providers enabled in cfg. With telemetry disabled every
// provider is a no-op and Shutdown returns nil.
func Setup(ctx context.Context, cfg config.TelemetryConfig, version string, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{logger: logger}
	if !cfg.Enabled {
		logger.Info("Telemetry disabled")
		t.Tracer = &TracerProvider{logger: logger}
		t.Meter = &MeterProvider{logger: logger}
		t.Logs = &LoggerProvider{}
		return t, nil
	}

	res, err := newResource(cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	if t.Tracer, err = NewTracerProvider(ctx, cfg, res, logger); err != nil {
		return nil, err
	}
	if t.Meter, err = NewMeterProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Tracer.Shutdown(ctx))
	}
	if t.Logs, err = NewLoggerProvider(ctx, cfg, res); err != nil {
		return nil, errors.Join(err, t.Tracer.Shutdown(ctx), t.Meter.Shutdown(ctx))
	}

	if cfg.PyroscopeEnabled {
		t.Profiler, err = StartProfiler(cfg.ServiceName, cfg.PyroscopeAddress, logger)
		if err != nil {
			logger.Warn("Profiler not started", zap.Error(err))
		} else {
			t.Tracer.EnableSpanProfiles()
		}
	}
	return t, nil
}

// Shutdown flushes and stops every provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	errs = append(errs, t.Logs.Shutdown(ctx), t.Meter.Shutdown(ctx), t.Tracer.Shutdown(ctx))
	return errors.Join(errs...)
}

func newResource(serviceName, version string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
