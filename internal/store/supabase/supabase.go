// Package supabase stores expenses in a Supabase (PostgREST) table.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"trackex/internal/core"
	"trackex/internal/log"
)

// Table is the expenses table name.
const Table = "expenses"

type Store struct {
	client *supabase.Client
	logger *log.Logger
}

func New(url, key string, logger *log.Logger) (*Store, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	if logger == nil {
		logger = log.ForComponent(log.ComponentStore)
	}
	return &Store{client: client, logger: logger}, nil
}

// ListExpenses fetches the owner's full history, newest date first.
// Rows that fail validation are logged and dropped.
func (s *Store) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.client.From(Table).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Order("date", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return decodeRows(ctx, s.logger, data)
}

// AddExpense inserts the expense row.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Expense{}, err
	}
	if _, _, err := s.client.From(Table).Insert(e.ToRecord(), false, "", "minimal", "").Execute(); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Expense saved to Supabase",
		log.FieldExpenseID, e.ID,
		log.FieldUserID, e.UserID)
	return e, nil
}

func decodeRows(ctx context.Context, logger *log.Logger, data []byte) ([]core.Expense, error) {
	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	return core.Quarantine(records, func(r core.Record, err error) {
		logger.WarnContext(ctx, "Quarantined malformed expense record",
			log.FieldError, err)
	}), nil
}
