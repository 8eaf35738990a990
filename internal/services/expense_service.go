// Package services holds the application's write paths.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trackex/internal/core"
	"trackex/internal/log"
	"trackex/internal/ports"
)

var ErrUnknownCategory = errors.New("unknown category")

// NewExpense is the add-expense form as submitted.
type NewExpense struct {
	Title    string
	Amount   string
	Category string
	Date     string
	Notes    string
}

// ValidationError names the form field that was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ExpenseService stores expenses and announces them on the event bus.
type ExpenseService struct {
	store     ports.ExpenseWriter
	publisher ports.EventPublisher
	logger    *log.StructuredLogger
	now       func() time.Time
}

// NewExpenseService creates the service. publisher may be nil.
func NewExpenseService(store ports.ExpenseWriter, publisher ports.EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.ForComponent(log.ComponentExpense)
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    log.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

// Parse validates form input into an expense owned by userID. Category
// must be a registry name.
func (s *ExpenseService) Parse(userID string, in NewExpense) (core.Expense, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return core.Expense{}, &ValidationError{Field: "title", Err: core.ErrEmptyTitle}
	}
	if len(title) > 200 {
		return core.Expense{}, &ValidationError{Field: "title", Err: core.ErrTitleTooLong}
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, &ValidationError{Field: "amount", Err: err}
	}
	cat, ok := core.LookupCategory(strings.TrimSpace(in.Category))
	if !ok {
		return core.Expense{}, &ValidationError{Field: "category", Err: ErrUnknownCategory}
	}
	var date core.Date
	if strings.TrimSpace(in.Date) == "" {
		n := s.now()
		date = core.NewDate(n.Year(), int(n.Month()), n.Day())
	} else if date, err = core.ParseDate(in.Date); err != nil {
		return core.Expense{}, &ValidationError{Field: "date", Err: err}
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > 1000 {
		return core.Expense{}, &ValidationError{Field: "notes", Err: core.ErrNotesTooLong}
	}

	now := s.now().UTC()
	e := core.Expense{
		ID:        uuid.NewString(),
		Title:     title,
		Amount:    amount,
		Category:  cat.Name,
		Date:      date,
		Notes:     notes,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, &ValidationError{Field: "expense", Err: err}
	}
	return e, nil
}

// Create validates and stores a new expense, then publishes it. A failed
// publish is logged and does not fail the call.
func (s *ExpenseService) Create(ctx context.Context, userID string, in NewExpense) (core.Expense, error) {
	e, err := s.Parse(userID, in)
	if err != nil {
		return core.Expense{}, err
	}

	stored, err := s.store.AddExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.logger.LogExpenseCreated(ctx, userID, stored.ID, stored.Amount.Cents, stored.Category)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, stored); err != nil {
			s.logger.LogError(ctx, "Failed to publish expense event", err, log.OpCreate,
				log.NewFields().WithUser(userID).WithExpense(stored.ID, stored.Amount.Cents, stored.Category))
		}
	}
	return stored, nil
}
