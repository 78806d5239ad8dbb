package backend

import (
	"context"

	"findash/internal/services"
	"findash/internal/source"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the source reader and, when configured, the load
// notifier. Notifier is nil when AMQP is disabled or unreachable.
type BackendResult struct {
	Reader   source.Reader
	Notifier services.Notifier
	Cleanup  CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// CSV specific
	SourceDir string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleUsersSheet         string
	GoogleCategoriesSheet    string
	GoogleTransactionsSheet  string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Optional load notifications
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// BackendType represents the type of source backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
