package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"countonme/internal/calculator"
	"countonme/internal/config"
	"countonme/internal/observability"
	"countonme/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	engineCfg, err := cfg.Engine.Expression()
	if err != nil {
		return err
	}

	// Logger, tracing, metrics, log export
	shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			fmt.Fprintln(os.Stderr, "telemetry shutdown:", err)
		}
	}()

	// Sessions
	store := calculator.NewStore(cfg.Sessions.TTL, cfg.Sessions.Max)
	go store.RunJanitor(ctx, time.Minute)

	// Router
	router := server.NewRouter(calculator.NewAPI(store, engineCfg, cfg.Language, cfg.Sessions.MaxKeys))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.Int("precision", engineCfg.Precision),
			zap.Int("max_whole_digits", engineCfg.MaxWholeDigits),
			zap.Stringer("strategy", engineCfg.Strategy),
			zap.Bool("telemetry", cfg.Telemetry),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return waitForShutdown(srv)
}

func waitForShutdown(srv *http.Server) error {

	observability.Logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
