// Package cli holds the bootstrap shared by cmd/findash and cmd/findash-load.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"findash/internal/config"
	applog "findash/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error; production sets real environment variables.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// SetupLogger builds the logger described by cfg, writing to w (stdout when
// nil), and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string, w io.Writer) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Level = applog.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	if w != nil {
		lc.Output = w
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig reads the environment, sets up logging from it and
// validates the result. The logger is usable even when validation fails, so
// callers can report the error before exiting.
func LoadAndValidateConfig(component string) (*config.Config, *applog.Logger, error) {
	cfg := config.Load()
	logger := SetupLogger(cfg, component, nil)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, then
// runs cleanup with a context bounded by timeout. done is closed once cleanup
// returns.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context) error) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			if err := cleanup(shutdownCtx); err != nil {
				logger.Error("Shutdown cleanup failed", "error", err)
				return
			}
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// Exit logs err and terminates with status 1.
func Exit(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, fmt.Sprint(err))
	os.Exit(1)
}
