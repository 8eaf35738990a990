package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"trackex/internal/core"
)

// MessageTypeExpenseCreated is set as the AMQP message type.
const MessageTypeExpenseCreated = "expense.created"

// ExpenseCreatedMessage carries a stored expense to the export worker.
type ExpenseCreatedMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	Notes       string    `json:"notes,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseCreatedMessage builds the event for e.
func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Date:        e.Date.String(),
		Notes:       e.Notes,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Expense converts the message back into an expense.
func (m *ExpenseCreatedMessage) Expense() (core.Expense, error) {
	d, err := core.ParseDate(m.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:       m.ID,
		UserID:   m.UserID,
		Title:    m.Title,
		Amount:   core.Money{Cents: m.AmountCents},
		Category: m.Category,
		Date:     d,
		Notes:    m.Notes,
	}, nil
}

// ExpenseCreatedMessageFromJSON decodes a message. The expense id is
// required.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("message has no expense id")
	}
	return &msg, nil
}
