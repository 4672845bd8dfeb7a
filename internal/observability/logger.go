package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Logger is the process wide logger. It discards everything until
// InitLogger or InitFileLogger replaces it.
var Logger = zap.NewNop()

// InitLogger installs a JSON production logger on stdout, or a console
// logger when development is set.
func InitLogger(development bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	Logger = l
	return nil
}

// InitFileLogger installs a JSON logger writing to path. Front ends that own
// the terminal use it instead of InitLogger.
func InitFileLogger(path string) error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build file logger %s: %w", path, err)
	}

	Logger = l
	return nil
}

func SyncLogger() {
	_ = Logger.Sync()
}

// LoggerWithTrace returns a child logger carrying the trace_id and span_id
// of the active span in ctx, or Logger itself when there is none.
//
// ctx is also attached as a field: the otelzap bridge picks up any field
// holding a context.Context and emits the OTLP record with it, which fills
// the native TraceID/SpanID of the exported log record.
func LoggerWithTrace(ctx context.Context) *zap.Logger {
	span := trace.SpanContextFromContext(ctx)

	if !span.IsValid() {
		return Logger
	}

	return Logger.With(
		zap.Any("context", ctx),
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}
