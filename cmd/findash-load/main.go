// Command findash-load rebuilds the local store from the configured source:
// it builds every table and view in a staging file, loads users, categories
// and transactions in one transaction, swaps the staging file in and exits.
// It must not run while findash serves the same store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"findash/internal/backend"
	"findash/internal/cli"
	applog "findash/internal/log"
	"findash/internal/services"
)

func main() {
	var (
		envFile    = flag.String("env", ".env", "optional env file")
		sourceFlag = flag.String("source", "", "source backend: "+strings.Join(backend.GetBackendTypeStrings(), ", ")+" (overrides SOURCE_BACKEND)")
		dirFlag    = flag.String("dir", "", "CSV source directory (overrides SOURCE_DIR)")
		dbFlag     = flag.String("db", "", "store path (overrides SQLITE_DB_PATH)")
	)
	flag.Parse()

	cli.LoadEnvFile(*envFile)
	for key, val := range map[string]string{
		"SOURCE_BACKEND": *sourceFlag,
		"SOURCE_DIR":     *dirFlag,
		"SQLITE_DB_PATH": *dbFlag,
	} {
		if val != "" {
			os.Setenv(key, val)
		}
	}

	cfg, logger, err := cli.LoadAndValidateConfig(applog.ComponentLoader)
	if err != nil {
		cli.Exit(logger, "Configuration validation failed", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Exit(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		cli.Exit(logger, "Failed to create source backend", err)
	}
	defer res.Close()

	loader := services.NewInitializer(res.Reader, res.Notifier, services.InitializerConfig{
		DBPath:     cfg.SQLiteDBPath,
		SourceName: cfg.SourceBackend,
	}, logger.Logger)

	result, err := loader.Run(ctx)
	if err != nil {
		res.Close()
		cli.Exit(logger, "Load failed", err)
	}

	logger.Info("Load finished",
		"users", result.Stats.Users,
		"categories", result.Stats.Categories,
		"transactions", result.Stats.Transactions,
		"schema_version", result.SchemaVersion)
}
