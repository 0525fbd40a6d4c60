package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "campusvoice"

// TraceFunction starts a new span named "<service>.<function>" on the global tracer provider.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceComplaintFunction starts a new span for a complaint store function.
func TraceComplaintFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "complaint", functionName, attributes...)
}

// TraceIdentityFunction starts a new span for an identity or session function.
func TraceIdentityFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "identity", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database bootstrap function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// FinishSpan ends a span and records any error pointed to by errPtr.
// Use with a named error return: `defer observability.FinishSpan(span, &err)`
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	if errPtr != nil && *errPtr != nil {
		span.RecordError(*errPtr, trace.WithStackTrace(true))
		span.SetStatus(codes.Error, (*errPtr).Error())
	}
	span.End()
}

// AttributeComplaintID returns a tracing attribute for a complaint's surrogate key.
func AttributeComplaintID(id int) attribute.KeyValue {
	return attribute.Int("complaint.id", id)
}

// AttributeTrackingCode returns a tracing attribute for a public tracking code.
func AttributeTrackingCode(code string) attribute.KeyValue {
	return attribute.String("complaint.tracking_code", code)
}

// AttributeStatusFilter returns a tracing attribute for a status filter value.
func AttributeStatusFilter(status string) attribute.KeyValue {
	return attribute.String("status_filter", status)
}

// AttributeCategoryFilter returns a tracing attribute for a category filter value.
func AttributeCategoryFilter(category string) attribute.KeyValue {
	return attribute.String("category_filter", category)
}
