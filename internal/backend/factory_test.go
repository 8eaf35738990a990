package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackex/internal/config"
	"trackex/internal/core"
	"trackex/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:           "aztables",
		SQLiteDBPath:          "./x.db",
		AzTablesServiceURL:    "http://127.0.0.1:10002/devstoreaccount1",
		AzTablesExpensesTable: "expenses",
	})
	require.NoError(t, err)
	assert.Equal(t, AzTablesBackend, cfg.Type)
	assert.Equal(t, "expenses", cfg.AzTablesTable)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"memory", Config{Type: MemoryBackend}, true},
		{"unknown", Config{Type: "sheets"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, false},
		{"supabase without key", Config{Type: SupabaseBackend, SQLiteDBPath: "x.db", SupabaseURL: "https://x"}, false},
		{"aztables without table", Config{Type: AzTablesBackend, SQLiteDBPath: "x.db", AzTablesServiceURL: "https://x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			assert.Equal(t, tc.ok, err == nil, "err = %v", err)
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.NotNil(t, res.Expenses)
	assert.NotNil(t, res.Users)
	assert.Nil(t, res.Cleanup)
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "trackex.db")

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { res.Cleanup() })

	require.NotNil(t, res.Ready)
	assert.NoError(t, res.Ready(ctx))

	_, err = res.Expenses.AddExpense(ctx, core.Expense{
		ID: "e1", UserID: "u1", Title: "Rent", Amount: core.Money{Cents: 90000},
		Category: "Rent", Date: core.NewDate(2025, 1, 1),
	})
	require.NoError(t, err)
	got, err := res.Expenses.ListExpenses(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
