package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
	BackendAzTables = "aztables"

	minSecretLength = 16
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendSupabase, BackendAzTables}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Supabase
	SupabaseURL string
	SupabaseKey string

	// Azure Table Storage
	AzTablesServiceURL    string
	AzTablesExpensesTable string

	// Sessions
	SessionSecret         string
	SessionTTL            time.Duration
	SessionResolveWait    time.Duration
	SessionResolveTimeout time.Duration
	CookieSecure          bool
	AuthRateLimit         int

	// Dashboard
	FetchTimeout time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/trackex.db"),

		SupabaseURL: getEnv("SUPABASE_URL", ""),
		SupabaseKey: getEnv("SUPABASE_KEY", ""),

		AzTablesServiceURL:    getEnv("AZTABLES_SERVICE_URL", ""),
		AzTablesExpensesTable: getEnv("AZTABLES_EXPENSES_TABLE", "expenses"),

		SessionSecret:         getEnv("SESSION_SECRET", ""),
		SessionTTL:            getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionResolveWait:    getEnvDuration("SESSION_RESOLVE_WAIT", 1500*time.Millisecond),
		SessionResolveTimeout: getEnvDuration("SESSION_RESOLVE_TIMEOUT", 10*time.Second),
		CookieSecure:          getEnvBool("COOKIE_SECURE", false),
		AuthRateLimit:         getEnvInt("AUTH_RATE_LIMIT", 10),

		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 10*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "trackex"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_expenses"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
	}
}

// Validate checks the web server configuration and returns every problem
// found in a single error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Users live in SQLite for every persistent backend.
	if c.DataBackend != BackendMemory {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using a persistent backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
		if c.SessionSecret == "" {
			errors = append(errors, "SESSION_SECRET is required when using a persistent backend")
		}
	}

	if c.SessionSecret != "" && len(c.SessionSecret) < minSecretLength {
		errors = append(errors, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSecretLength))
	}

	switch c.DataBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			errors = append(errors, "SUPABASE_URL and SUPABASE_KEY are required when using supabase backend")
		} else if u, err := url.Parse(c.SupabaseURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid SUPABASE_URL '%s'", c.SupabaseURL))
		}
	case BackendAzTables:
		if c.AzTablesServiceURL == "" {
			errors = append(errors, "AZTABLES_SERVICE_URL is required when using aztables backend")
		} else if u, err := url.Parse(c.AzTablesServiceURL); err != nil || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid AZTABLES_SERVICE_URL '%s'", c.AzTablesServiceURL))
		}
		if c.AzTablesExpensesTable == "" {
			errors = append(errors, "AZTABLES_EXPENSES_TABLE cannot be empty when using aztables backend")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionResolveWait <= 0 {
		errors = append(errors, fmt.Sprintf("invalid session resolve wait %v: must be positive", c.SessionResolveWait))
	}
	if c.SessionResolveTimeout < c.SessionResolveWait {
		errors = append(errors, fmt.Sprintf("invalid session resolve timeout %v: must be at least the resolve wait %v", c.SessionResolveTimeout, c.SessionResolveWait))
	}
	if c.FetchTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 100ms", c.FetchTimeout))
	}
	if c.AuthRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid auth rate limit %d: must be at least 1", c.AuthRateLimit))
	}

	errors = append(errors, c.amqpErrors()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the export worker configuration: a broker and a
// spreadsheet are both required.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the export worker")
	}
	errors = append(errors, c.amqpErrors()...)

	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the export worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided")
	}
	if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) amqpErrors() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
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
