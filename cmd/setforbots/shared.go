package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/setforbots/internal/config"
	"github.com/muesli/termenv"
)

// loadConfig reads the file and applies command line overrides before
// validating, so a bad flag fails the same way a bad file does.
func loadConfig(path, level, file string, seed int64) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if file != "" {
		cfg.Log.File = file
	}
	if seed != 0 {
		cfg.Game.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger opens the configured log destination. When the terminal is
// taken by the TUI and no file is set, logs are discarded.
func setupLogger(settings *config.LogSettings, tuiActive, noColor bool) (*log.Logger, func(), error) {
	var out io.Writer = os.Stderr
	cleanup := func() {}

	switch {
	case settings.File != "":
		f, err := os.OpenFile(settings.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		cleanup = func() { _ = f.Close() }
	case tuiActive:
		out = io.Discard
	}

	level, err := log.ParseLevel(settings.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	if noColor || settings.File != "" {
		logger.SetColorProfile(termenv.Ascii)
	}
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return logger, cleanup, nil
}

// setupSignalHandler returns a context cancelled on interrupt signals.
func setupSignalHandler(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
