package backend

import (
	"context"
	"fmt"

	"trackex/internal/log"
	"trackex/internal/storage"
	"trackex/internal/store/aztables"
	"trackex/internal/store/memory"
	"trackex/internal/store/supabase"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.ForComponent(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(), nil
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SupabaseBackend:
		return f.createSupabaseBackend(config)
	case AzTablesBackend:
		return f.createAzTablesBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{
		Expenses: memory.New(),
		Users:    memory.NewUsers(),
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Expenses: repo,
		Users:    repo,
		Ready:    repo.Ping,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createSupabaseBackend(config Config) (*BackendResult, error) {
	users, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite user store: %w", err)
	}

	expenses, err := supabase.New(config.SupabaseURL, config.SupabaseKey, f.logger.WithComponent(log.ComponentStore))
	if err != nil {
		users.Close()
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
	}

	f.logger.Info("Initialized Supabase backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Expenses: expenses,
		Users:    users,
		Ready:    users.Ping,
		Cleanup:  users.Close,
	}, nil
}

func (f *DefaultFactory) createAzTablesBackend(ctx context.Context, config Config) (*BackendResult, error) {
	users, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite user store: %w", err)
	}

	expenses, err := aztables.New(ctx, config.AzTablesServiceURL, config.AzTablesTable, f.logger.WithComponent(log.ComponentStore))
	if err != nil {
		users.Close()
		return nil, fmt.Errorf("failed to initialize Azure Tables client: %w", err)
	}

	f.logger.Info("Initialized Azure Tables backend",
		"table", config.AzTablesTable,
		"db_path", config.SQLiteDBPath)

	return &BackendResult{
		Expenses: expenses,
		Users:    users,
		Ready:    users.Ping,
		Cleanup:  users.Close,
	}, nil
}
