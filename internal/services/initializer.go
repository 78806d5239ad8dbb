package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"findash/internal/amqp"
	"findash/internal/source"
	"findash/internal/storage"
)

// Notifier is told about every successful load. It is optional.
type Notifier interface {
	PublishDatasetLoaded(ctx context.Context, msg *amqp.DatasetLoadedMessage) error
}

// InitializerConfig names the store to rebuild and the source it comes from.
type InitializerConfig struct {
	DBPath     string
	SourceName string
}

// LoadResult summarizes one initialization run.
type LoadResult struct {
	Stats         storage.LoadStats
	SchemaVersion uint
	Duration      time.Duration
	Notified      bool
}

// Initializer rebuilds the store from a source: read, validate, reset the
// schema, load, replace, notify. Each step runs only after the previous one
// succeeded, and the live store changes only at the final replace.
type Initializer struct {
	reader   source.Reader
	notifier Notifier
	config   InitializerConfig
	logger   *slog.Logger
}

func NewInitializer(reader source.Reader, notifier Notifier, config InitializerConfig, logger *slog.Logger) *Initializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Initializer{
		reader:   reader,
		notifier: notifier,
		config:   config,
		logger:   logger.With("component", "loader"),
	}
}

// Run executes every step once. It never retries.
func (i *Initializer) Run(ctx context.Context) (LoadResult, error) {
	start := time.Now()
	var res LoadResult

	i.logger.InfoContext(ctx, "Reading source", "step", "read_source", "source", i.config.SourceName)
	ds, err := i.reader.Read(ctx)
	if err != nil {
		return res, fmt.Errorf("read source: %w", err)
	}

	i.logger.InfoContext(ctx, "Validating dataset", "step", "validate",
		"users", len(ds.Users),
		"categories", len(ds.Categories),
		"transactions", len(ds.Transactions))
	if err := ds.Validate(); err != nil {
		return res, fmt.Errorf("validate dataset: %w", err)
	}

	// The new store is built beside the live one and renamed over it only
	// once it is complete, so a failed load leaves the previous data intact.
	staging := i.config.DBPath + ".loading"
	if err := storage.Remove(staging); err != nil {
		return res, err
	}
	err = storage.WithStore(ctx, staging, func(s *storage.Store) error {
		steps, err := storage.SetupSteps()
		if err != nil {
			return err
		}
		names := make([]string, len(steps))
		for n, st := range steps {
			names[n] = st.Name
		}
		i.logger.InfoContext(ctx, "Resetting schema", "step", "reset_schema", "path", s.Path(), "setup_steps", names)
		if err := s.Reset(ctx); err != nil {
			return fmt.Errorf("reset schema: %w", err)
		}

		i.logger.InfoContext(ctx, "Loading tables", "step", "load")
		stats, err := s.Load(ctx, ds)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		res.Stats = stats

		version, _, err := s.Version()
		if err != nil {
			return fmt.Errorf("schema version: %w", err)
		}
		res.SchemaVersion = version
		return nil
	})
	if err == nil {
		i.logger.InfoContext(ctx, "Replacing store", "step", "replace", "path", i.config.DBPath)
		err = storage.Replace(staging, i.config.DBPath)
	}
	if err != nil {
		if rerr := storage.Remove(staging); rerr != nil {
			i.logger.WarnContext(ctx, "Failed to remove staging store", "path", staging, "error", rerr)
		}
		return res, err
	}

	for _, t := range source.Tables() {
		i.logger.InfoContext(ctx, "Table loaded", "table", string(t), "rows", res.Stats.Rows(t))
	}

	if i.notifier != nil {
		msg := amqp.NewDatasetLoadedMessage(i.config.SourceName, i.config.DBPath, res.SchemaVersion,
			res.Stats.Users, res.Stats.Categories, res.Stats.Transactions)
		if err := i.notifier.PublishDatasetLoaded(ctx, msg); err != nil {
			// The store is already committed; a lost notification is not a failed load.
			i.logger.WarnContext(ctx, "Failed to publish dataset loaded message", "step", "notify", "error", err)
		} else {
			res.Notified = true
		}
	}

	res.Duration = time.Since(start)
	i.logger.InfoContext(ctx, "Initialization complete",
		"schema_version", res.SchemaVersion,
		"duration_ms", res.Duration.Milliseconds(),
		"notified", res.Notified)
	return res, nil
}
