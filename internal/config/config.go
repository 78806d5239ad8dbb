package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Source backends.
const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
	SourceMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port           string
	RequestTimeout time.Duration

	// Store
	SQLiteDBPath string

	// Source selection
	SourceBackend string
	SourceDir     string

	// Google Sheets source
	GoogleSpreadsheetID      string
	GoogleUsersSheet         string
	GoogleCategoriesSheet    string
	GoogleTransactionsSheet  string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP notification, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 7*time.Second),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/findash.db"),

		SourceBackend: strings.ToLower(getEnv("SOURCE_BACKEND", SourceCSV)),
		SourceDir:     getEnv("SOURCE_DIR", "source"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleUsersSheet:         getEnv("GOOGLE_USERS_SHEET", "users"),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET", "categories"),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "findash"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "dataset.loaded"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout < 100*time.Millisecond || c.RequestTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be between 100ms and 5m", c.RequestTimeout))
	}

	if strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	validBackends := []string{SourceCSV, SourceSheets, SourceMemory}
	if !slices.Contains(validBackends, c.SourceBackend) {
		errors = append(errors, fmt.Sprintf("invalid source backend '%s': must be one of %v", c.SourceBackend, validBackends))
	}

	if c.SourceBackend == SourceCSV && strings.TrimSpace(c.SourceDir) == "" {
		errors = append(errors, "source directory cannot be empty when using csv backend")
	}

	if c.SourceBackend == SourceSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// AMQP is optional; when set it must be usable
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether load notifications should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
