package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackex/internal/amqp"
	"trackex/internal/core"
	"trackex/internal/log"
)

type fakeSheet struct {
	rows []core.Expense
	err  error
}

func (f *fakeSheet) Append(_ context.Context, e core.Expense) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, e)
	return "Expenses!A2:G2", nil
}

func message() *amqp.ExpenseCreatedMessage {
	return amqp.NewExpenseCreatedMessage(core.Expense{
		ID:       "e-1",
		UserID:   "u-1",
		Title:    "Coffee",
		Amount:   core.Money{Cents: 350},
		Category: "Food",
		Date:     core.NewDate(2025, 4, 1),
	})
}

func TestHandleExpenseCreated(t *testing.T) {
	sheet := &fakeSheet{}
	w := NewExportWorker(sheet, log.Discard())

	require.NoError(t, w.HandleExpenseCreated(context.Background(), message()))
	require.Len(t, sheet.rows, 1)
	assert.Equal(t, "Coffee", sheet.rows[0].Title)
	assert.Equal(t, int64(350), sheet.rows[0].Amount.Cents)
	assert.Equal(t, "2025-04-01", sheet.rows[0].Date.String())

	// redelivery is not appended twice
	require.NoError(t, w.HandleExpenseCreated(context.Background(), message()))
	assert.Len(t, sheet.rows, 1)
}

func TestHandleExpenseCreated_AppendFailureIsRetried(t *testing.T) {
	boom := errors.New("quota exceeded")
	sheet := &fakeSheet{err: boom}
	w := NewExportWorker(sheet, log.Discard())

	err := w.HandleExpenseCreated(context.Background(), message())
	assert.ErrorIs(t, err, boom)

	sheet.err = nil
	require.NoError(t, w.HandleExpenseCreated(context.Background(), message()))
	assert.Len(t, sheet.rows, 1)
}

func TestHandleExpenseCreated_InvalidMessageDropped(t *testing.T) {
	sheet := &fakeSheet{}
	w := NewExportWorker(sheet, log.Discard())

	msg := message()
	msg.Date = "not a date"
	assert.NoError(t, w.HandleExpenseCreated(context.Background(), msg))
	assert.Empty(t, sheet.rows)
}
