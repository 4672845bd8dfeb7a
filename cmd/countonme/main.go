package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"countonme/internal/config"
	"countonme/internal/observability"
	"countonme/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	engineCfg, err := cfg.Engine.Expression()
	if err != nil {
		return err
	}

	// The terminal belongs to the keypad: logs only go to a file.
	if cfg.LogFile != "" {
		if err := observability.InitFileLogger(cfg.LogFile); err != nil {
			return err
		}
		defer observability.SyncLogger()
	}

	m, err := tui.New(engineCfg, cfg.Language, observability.Logger)
	if err != nil {
		return err
	}

	observability.Logger.Info("keypad started",
		zap.Int("precision", engineCfg.Precision),
		zap.Int("max_whole_digits", engineCfg.MaxWholeDigits),
		zap.Stringer("strategy", engineCfg.Strategy),
		zap.String("language", cfg.Language),
	)

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("keypad: %w", err)
	}
	return nil
}
