package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is an expense as a document store returns it, before any type is
// trusted. Field names follow the stored document.
type Record struct {
	ID        any `json:"id"`
	Title     any `json:"title"`
	Amount    any `json:"amount"`
	Category  any `json:"category"`
	Date      any `json:"date"`
	Notes     any `json:"notes,omitempty"`
	UserID    any `json:"user_id"`
	CreatedAt any `json:"created_at,omitempty"`
	UpdatedAt any `json:"updated_at,omitempty"`
}

// RecordError reports which field of a stored record failed validation.
type RecordError struct {
	ID    string
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %q: field %s: %v", e.ID, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ParseRecord converts a raw record into an Expense, checking every field's
// type. Category is carried as-is and not checked against the registry.
func ParseRecord(r Record) (Expense, error) {
	id, _ := r.ID.(string)
	fail := func(field string, err error) (Expense, error) {
		return Expense{}, &RecordError{ID: id, Field: field, Err: err}
	}

	if strings.TrimSpace(id) == "" {
		return fail("id", fmt.Errorf("missing"))
	}
	title, ok := r.Title.(string)
	if !ok {
		return fail("title", fmt.Errorf("expected string, got %T", r.Title))
	}
	amount, err := recordAmount(r.Amount)
	if err != nil {
		return fail("amount", err)
	}
	category, ok := r.Category.(string)
	if !ok {
		return fail("category", fmt.Errorf("expected string, got %T", r.Category))
	}
	date, err := recordDate(r.Date)
	if err != nil {
		return fail("date", err)
	}
	owner, ok := r.UserID.(string)
	if !ok || owner == "" {
		return fail("user_id", fmt.Errorf("expected non-empty string, got %T", r.UserID))
	}

	e := Expense{
		ID:       id,
		Title:    title,
		Amount:   amount,
		Category: category,
		Date:     date,
		UserID:   owner,
	}
	if notes, ok := r.Notes.(string); ok {
		e.Notes = notes
	}
	e.CreatedAt = recordTime(r.CreatedAt)
	e.UpdatedAt = recordTime(r.UpdatedAt)
	return e, nil
}

// Quarantine parses records and keeps the valid ones in input order. Each
// rejected record is reported to reject, which may be nil.
func Quarantine(records []Record, reject func(Record, error)) []Expense {
	out := make([]Expense, 0, len(records))
	for _, r := range records {
		e, err := ParseRecord(r)
		if err != nil {
			if reject != nil {
				reject(r, err)
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

func recordAmount(v any) (Money, error) {
	switch n := v.(type) {
	case float64:
		return MoneyFromFloat(n)
	case float32:
		return MoneyFromFloat(float64(n))
	case int:
		return MoneyFromFloat(float64(n))
	case int32:
		return MoneyFromFloat(float64(n))
	case int64:
		return MoneyFromFloat(float64(n))
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return Money{}, ErrInvalidAmount
		}
		return moneyFromDecimal(d)
	case string:
		return parsePlainDecimal(strings.TrimSpace(n))
	default:
		return Money{}, fmt.Errorf("%w: unexpected type %T", ErrInvalidAmount, v)
	}
}

func recordDate(v any) (Date, error) {
	switch d := v.(type) {
	case string:
		return ParseDate(d)
	case time.Time:
		if d.IsZero() {
			return Date{}, ErrInvalidDate
		}
		return NewDate(d.Year(), int(d.Month()), d.Day()), nil
	default:
		return Date{}, fmt.Errorf("%w: unexpected type %T", ErrInvalidDate, v)
	}
}

func recordTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// ToRecord is the inverse of ParseRecord, used by stores that write
// documents.
func (e Expense) ToRecord() Record {
	r := Record{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount.Float(),
		Category: e.Category,
		Date:     e.Date.String(),
		UserID:   e.UserID,
	}
	if e.Notes != "" {
		r.Notes = e.Notes
	}
	if !e.CreatedAt.IsZero() {
		r.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !e.UpdatedAt.IsZero() {
		r.UpdatedAt = e.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return r
}
