package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RecordError centralises failure bookkeeping across domains: it records the
// error on the span, increments counter tagged with the operation and any
// extra attributes, and logs with trace context. Writing the response is left
// to the caller.
func RecordError(ctx context.Context, span trace.Span, logger *zap.Logger, counter metric.Int64Counter, opName, msg string, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	counterAttrs := append([]attribute.KeyValue{attribute.String("operation", opName)}, attrs...)
	counter.Add(ctx, 1, metric.WithAttributes(counterAttrs...))

	fields := []zap.Field{
		zap.String("operation", opName),
		zap.Error(err),
		zap.String("request_id", RequestIDFromContext(ctx)),
	}
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value.Emit()))
	}

	logger.Error(msg, fields...)
}
