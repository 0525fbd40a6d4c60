package observability

import (
	"context"
	"errors"

	"campusvoice/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers bundles the telemetry pipelines started by SetupObservability
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Logger         *Logger
}

// SetupObservability initializes tracing, metrics, and logging for a service.
// Disabled pipelines are left nil; the logger is always set.
func SetupObservability(cfg *config.OpenTelemetryConfig, serviceName, logLevel string) (result0 *Providers, err error) {
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}

	providers := &Providers{
		Logger: NewLoggerWithLevel(cfg, ParseLevel(logLevel)),
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.EnableTracing {
		tp, err := InitTracing(cfg)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		providers.TracerProvider = tp
		providers.Logger.Info(context.Background(), "Tracing enabled", map[string]interface{}{
			"service_name": cfg.ServiceName,
			"protocol":     cfg.Protocol,
		})
	}

	if cfg.EnableMetrics {
		mp, err := InitMetrics(cfg)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(mp)
		providers.MeterProvider = mp
	}

	return providers, nil
}

// Shutdown flushes and stops every started pipeline
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		errs = append(errs, p.TracerProvider.Shutdown(ctx))
	}
	if p.MeterProvider != nil {
		errs = append(errs, p.MeterProvider.Shutdown(ctx))
	}
	if p.Logger != nil {
		errs = append(errs, p.Logger.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
