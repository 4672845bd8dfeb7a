package main

import (
	"context"

	"countonme/internal/calculator"
	"countonme/internal/config"
	"countonme/internal/observability"
)

// initTelemetry installs the logger, the OTel providers when enabled and the
// calculator's metric instruments.
func initTelemetry(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	shutdown, err := observability.Init(ctx, observability.Settings{
		ServiceName: cfg.ServiceName,
		Development: cfg.Development,
		Telemetry:   cfg.Telemetry,
	})
	if err != nil {
		return nil, err
	}

	if err := calculator.InitMetrics(); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return shutdown, nil
}
