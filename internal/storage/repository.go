package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trackex/internal/core"
	"trackex/internal/identity"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text in time order.
// RFC3339Nano trims trailing zeros and would put "10:00:00Z" after
// "10:00:00.5Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AddExpense implements ports.ExpenseWriter
func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	err := r.queries.CreateExpense(ctx, ExpenseRow{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Date:        e.Date.String(),
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:   e.UpdatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return e, nil
}

// ListExpenses implements ports.ExpenseLister. Rows whose stored date no
// longer parses are skipped and logged.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses for user %s: %w", ownerID, err)
	}

	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping expense with invalid date",
				"id", row.ID, "date", row.Date)
			continue
		}
		out = append(out, core.Expense{
			ID:        row.ID,
			Title:     row.Title,
			Amount:    core.Money{Cents: row.AmountCents},
			Category:  row.Category,
			Date:      d,
			Notes:     row.Notes,
			UserID:    row.UserID,
			CreatedAt: parseTime(row.CreatedAt),
			UpdatedAt: parseTime(row.UpdatedAt),
		})
	}
	return out, nil
}

// CreateUser implements identity.UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, a identity.Account) error {
	err := r.queries.CreateUser(ctx, UserRow{
		ID:                 a.ID,
		Email:              a.Email,
		PasswordHash:       a.PasswordHash,
		DisplayName:        a.DisplayName,
		MonthlyBudgetCents: budgetToNull(a.MonthlyBudget),
		CreatedAt:          a.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:          a.UpdatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (identity.Account, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return identity.Account{}, userError(err)
	}
	return rowToAccount(row), nil
}

func (r *SQLiteRepository) FindUserByID(ctx context.Context, id string) (identity.Account, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if err != nil {
		return identity.Account{}, userError(err)
	}
	return rowToAccount(row), nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, id, displayName string, budget *core.Money, at time.Time) error {
	n, err := r.queries.UpdateUserProfile(ctx, id, displayName, budgetToNull(budget), at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func userError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return identity.ErrUserNotFound
	}
	return fmt.Errorf("get user: %w", err)
}

func rowToAccount(row UserRow) identity.Account {
	a := identity.Account{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		DisplayName:  row.DisplayName,
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
	}
	if row.MonthlyBudgetCents.Valid {
		a.MonthlyBudget = &core.Money{Cents: row.MonthlyBudgetCents.Int64}
	}
	return a
}

func budgetToNull(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: m.Cents, Valid: true}
}

// parseTime reads both timeLayout and the trimmed RFC3339Nano form written
// by older rows.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
