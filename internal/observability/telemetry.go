package observability

import (
	"context"
	"errors"
)

// Settings selects what Init sets up.
type Settings struct {
	ServiceName string
	Development bool
	// Telemetry enables the OTLP trace, metric and log exporters. Without it
	// only the stdout logger is installed and OTel stays a no-op.
	Telemetry bool
}

// Init installs the logger and, when enabled, the OTel providers. The
// returned function flushes and stops everything that was started.
func Init(ctx context.Context, s Settings) (func(context.Context) error, error) {
	if err := InitLogger(s.Development); err != nil {
		return nil, err
	}

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		SyncLogger()
		return errors.Join(errs...)
	}

	if !s.Telemetry {
		return shutdown, nil
	}

	for _, start := range []func(context.Context, string) (func(context.Context) error, error){
		InitTracing,
		InitMetrics,
		InitLogging,
	} {
		stop, err := start(ctx, s.ServiceName)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		shutdowns = append(shutdowns, stop)
	}

	return shutdown, nil
}
