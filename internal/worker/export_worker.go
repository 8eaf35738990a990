// Package worker exports created expenses to a spreadsheet as they arrive
// from the message broker.
package worker

import (
	"context"
	"fmt"
	"time"

	"trackex/internal/amqp"
	"trackex/internal/cache"
	"trackex/internal/core"
	"trackex/internal/log"
)

const (
	recentSize = 10_000
	recentTTL  = time.Hour
)

// Appender writes one expense row and returns the range it landed in.
type Appender interface {
	Append(ctx context.Context, e core.Expense) (string, error)
}

// ExportWorker handles expense.created messages.
type ExportWorker struct {
	sheets Appender
	logger *log.Logger
	// recent remembers exported ids so broker redeliveries are not appended twice
	recent *cache.LRUCache[string]
}

func NewExportWorker(sheets Appender, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.ForComponent(log.ComponentWorker)
	}
	return &ExportWorker{
		sheets: sheets,
		logger: logger,
		recent: cache.NewLRUCache[string](recentSize, recentTTL),
	}
}

// Recent exposes the redelivery cache so a janitor can sweep it.
func (w *ExportWorker) Recent() cache.Cleaner { return w.recent }

// HandleExpenseCreated appends the expense carried by msg. Returning an
// error asks the broker to redeliver.
func (w *ExportWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	if ref, ok := w.recent.Get(msg.ID); ok {
		w.logger.InfoContext(ctx, "Expense already exported, skipping",
			log.FieldExpenseID, msg.ID, "range", ref)
		return nil
	}

	e, err := msg.Expense()
	if err != nil {
		// A message that cannot become an expense will never succeed.
		w.logger.WarnContext(ctx, "Dropping invalid expense message",
			log.FieldExpenseID, msg.ID, log.FieldError, err)
		return nil
	}

	ref, err := w.sheets.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("export expense %s: %w", e.ID, err)
	}
	w.recent.Set(e.ID, ref)

	w.logger.InfoContext(ctx, "Expense exported",
		log.FieldExpenseID, e.ID,
		log.FieldUserID, e.UserID,
		log.FieldAmountCents, e.Amount.Cents,
		"range", ref)
	return nil
}

// Run consumes messages until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := client.Consume(ctx, w.HandleExpenseCreated)
	w.logger.InfoContext(ctx, "Export worker stopped")
	return err
}
