package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"findash/internal/cli"
	apphttp "findash/internal/http"
	applog "findash/internal/log"
	"findash/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadAndValidateConfig(applog.ComponentApp)
	if err != nil {
		cli.Exit(logger, "Configuration validation failed", err)
	}

	store, err := storage.Open(context.Background(), cfg.SQLiteDBPath)
	if err != nil {
		cli.Exit(logger, "Failed to open store", err)
	}
	defer store.Close()

	srv := apphttp.NewServer(":"+cfg.Port, store, apphttp.ServerConfig{
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, srv.Shutdown)

	logger.Info("Starting findash server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		store.Close()
		cli.Exit(logger, "Server stopped", err)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
