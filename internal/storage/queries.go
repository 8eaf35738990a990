package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type ExpenseRow struct {
	ID          string
	UserID      string
	Title       string
	AmountCents int64
	Category    string
	Date        string
	Notes       string
	CreatedAt   string
	UpdatedAt   string
}

type UserRow struct {
	ID                 string
	Email              string
	PasswordHash       []byte
	DisplayName        string
	MonthlyBudgetCents sql.NullInt64
	CreatedAt          string
	UpdatedAt          string
}

const createExpense = `
INSERT INTO expenses (id, user_id, title, amount_cents, category, date, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, arg ExpenseRow) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		arg.ID, arg.UserID, arg.Title, arg.AmountCents, arg.Category,
		arg.Date, arg.Notes, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const listExpensesByUser = `
SELECT id, user_id, title, amount_cents, category, date, notes, created_at, updated_at
FROM expenses
WHERE user_id = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListExpensesByUser(ctx context.Context, userID string) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		var i ExpenseRow
		if err := rows.Scan(
			&i.ID, &i.UserID, &i.Title, &i.AmountCents, &i.Category,
			&i.Date, &i.Notes, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createUser = `
INSERT INTO users (id, email, password_hash, display_name, monthly_budget_cents, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg UserRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID, arg.Email, arg.PasswordHash, arg.DisplayName,
		arg.MonthlyBudgetCents, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const userColumns = `id, email, password_hash, display_name, monthly_budget_cents, created_at, updated_at`

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const updateUserProfile = `
UPDATE users SET display_name = ?, monthly_budget_cents = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateUserProfile(ctx context.Context, id, displayName string, budget sql.NullInt64, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserProfile, displayName, budget, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanUser(row *sql.Row) (UserRow, error) {
	var i UserRow
	err := row.Scan(
		&i.ID, &i.Email, &i.PasswordHash, &i.DisplayName,
		&i.MonthlyBudgetCents, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}
