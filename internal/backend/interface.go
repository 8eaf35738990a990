package backend

import (
	"context"

	"trackex/internal/identity"
	"trackex/internal/ports"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backing store can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the stores and optional hooks for the process.
type BackendResult struct {
	Expenses ports.ExpenseStore
	Users    identity.UserStore
	Ready    ReadyFunc
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite holds users for every persistent backend and expenses for
	// the sqlite backend.
	SQLiteDBPath string

	// Supabase specific
	SupabaseURL string
	SupabaseKey string

	// Azure Table Storage specific
	AzTablesServiceURL string
	AzTablesTable      string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	SupabaseBackend BackendType = "supabase"
	AzTablesBackend BackendType = "aztables"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SupabaseBackend, AzTablesBackend:
		return true
	default:
		return false
	}
}
