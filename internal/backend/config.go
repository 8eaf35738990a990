package backend

import (
	"fmt"

	"trackex/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:               backendType,
		SQLiteDBPath:       appConfig.SQLiteDBPath,
		SupabaseURL:        appConfig.SupabaseURL,
		SupabaseKey:        appConfig.SupabaseKey,
		AzTablesServiceURL: appConfig.AzTablesServiceURL,
		AzTablesTable:      appConfig.AzTablesExpensesTable,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type != MemoryBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for %s backend", c.Type)
	}

	switch c.Type {
	case SupabaseBackend:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("Supabase URL and key are required for supabase backend")
		}
	case AzTablesBackend:
		if c.AzTablesServiceURL == "" {
			return fmt.Errorf("Azure Tables service URL is required for aztables backend")
		}
		if c.AzTablesTable == "" {
			return fmt.Errorf("Azure Tables table name is required for aztables backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, SupabaseBackend, AzTablesBackend}
}
