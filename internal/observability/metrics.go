package observability

import (
	"context"

	"campusvoice/internal/config"
	contextutils "campusvoice/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics builds an SDK meter provider exporting over OTLP gRPC or HTTP
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *sdkmetric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter sdkmetric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err = otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
	default:
		return nil, contextutils.ErrorWithContextf("unsupported otel protocol: %s", cfg.Protocol)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

// ComplaintMetrics holds the domain counters recorded by the complaint store.
// Instruments come from the global meter provider, so they are no-ops until metrics are enabled.
type ComplaintMetrics struct {
	created    metric.Int64Counter
	collisions metric.Int64Counter
	updated    metric.Int64Counter
}

// NewComplaintMetrics registers the complaint counters
func NewComplaintMetrics() *ComplaintMetrics {
	meter := otel.Meter(tracerName)
	m := &ComplaintMetrics{}
	// Instrument creation only fails on invalid names; a nil counter is skipped at record time.
	m.created, _ = meter.Int64Counter("complaints_created_total",
		metric.WithDescription("Complaints accepted from the public form"))
	m.collisions, _ = meter.Int64Counter("complaint_id_collisions_total",
		metric.WithDescription("Tracking code collisions that triggered a retry"))
	m.updated, _ = meter.Int64Counter("complaints_updated_total",
		metric.WithDescription("Admin updates applied to complaints"))
	return m
}

// RecordCreated counts an accepted complaint
func (m *ComplaintMetrics) RecordCreated(ctx context.Context, category string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// RecordCollision counts a tracking code collision
func (m *ComplaintMetrics) RecordCollision(ctx context.Context) {
	if m == nil || m.collisions == nil {
		return
	}
	m.collisions.Add(ctx, 1)
}

// RecordUpdated counts an admin update, labelled with the new status when one was set
func (m *ComplaintMetrics) RecordUpdated(ctx context.Context, status string) {
	if m == nil || m.updated == nil {
		return
	}
	if status == "" {
		status = "unchanged"
	}
	m.updated.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
