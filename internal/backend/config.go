package backend

import (
	"fmt"

	"findash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.SourceBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.SourceBackend)
	}

	return Config{
		Type:      backendType,
		SourceDir: appConfig.SourceDir,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleUsersSheet:         appConfig.GoogleUsersSheet,
		GoogleCategoriesSheet:    appConfig.GoogleCategoriesSheet,
		GoogleTransactionsSheet:  appConfig.GoogleTransactionsSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		AMQPURL:        appConfig.AMQPURL,
		AMQPExchange:   appConfig.AMQPExchange,
		AMQPRoutingKey: appConfig.AMQPRoutingKey,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.SourceDir == "" {
			return fmt.Errorf("source directory is required for csv backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		// Serves the built-in demo dataset
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPRoutingKey == "") {
		return fmt.Errorf("AMQP exchange and routing key are required when AMQP URL is set")
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
