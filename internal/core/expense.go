package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format of an expense date.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date. Only year, month and day are meaningful.
	Date struct {
		time.Time
	}

	// Expense is one spending entry owned by one user.
	Expense struct {
		ID        string
		Title     string
		Amount    Money
		Category  string
		Date      Date
		Notes     string
		UserID    string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrNotesTooLong  = errors.New("notes too long (max 1000 characters)")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyOwner    = errors.New("empty owner")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date. A full RFC 3339 timestamp is also
// accepted and truncated to its calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthLabel returns the calendar month and year, e.g. "Jan 2025".
func (d Date) MonthLabel() string {
	return d.Format("Jan 2006")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the fields a stored expense must carry. The category is
// only required to be non-empty here; registry membership is checked by
// callers that create expenses.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyOwner
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return ErrTitleTooLong
	}
	if len(e.Notes) > 1000 {
		return ErrNotesTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
