package backend

import (
	"context"
	"fmt"
	"log/slog"

	"findash/internal/amqp"
	"findash/internal/source/csvfile"
	"findash/internal/source/google"
	"findash/internal/source/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case CSVBackend:
		res = f.createCSVBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
			res.Notifier = client
			res.Cleanup = client.Close
		}
	}
	return res, nil
}

func (f *DefaultFactory) createCSVBackend(config Config) *BackendResult {
	f.logger.Info("Initialized CSV source", "source_dir", config.SourceDir)
	return &BackendResult{Reader: csvfile.New(config.SourceDir, f.logger)}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		UsersSheet:         config.GoogleUsersSheet,
		CategoriesSheet:    config.GoogleCategoriesSheet,
		TransactionsSheet:  config.GoogleTransactionsSheet,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets source", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Reader: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory source with demo dataset")
	return &BackendResult{Reader: memory.New(memory.Demo())}
}
