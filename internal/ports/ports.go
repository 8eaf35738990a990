// Package ports declares the interfaces between the application and its
// outbound adapters.
package ports

import (
	"context"

	"trackex/internal/core"
)

type (
	// ExpenseLister returns every expense owned by ownerID, newest date
	// first. There is no pagination.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
	}

	// ExpenseWriter stores a new expense and returns it as stored.
	ExpenseWriter interface {
		AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	// ExpenseStore is a full expense backend.
	ExpenseStore interface {
		ExpenseLister
		ExpenseWriter
	}

	// EventPublisher announces stored expenses to other processes.
	EventPublisher interface {
		PublishExpenseCreated(ctx context.Context, e core.Expense) error
	}
)
