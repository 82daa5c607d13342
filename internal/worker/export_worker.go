// Package worker mirrors expense changes into an external sheet.
package worker

import (
	"context"
	"fmt"

	"outgo/internal/amqp"
	"outgo/internal/log"
	"outgo/internal/sheets"
	"outgo/internal/storage"
)

// ExportWorker consumes change notifications and journals the affected
// expenses into a sheet. The sheet is an append-only journal: deletions are
// logged but leave past rows in place.
type ExportWorker struct {
	store    *storage.Store
	appender sheets.RowAppender
	logger   *log.Logger
}

func NewExportWorker(store *storage.Store, appender sheets.RowAppender, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &ExportWorker{
		store:    store,
		appender: appender,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes a single change notification.
func (w *ExportWorker) Handle(ctx context.Context, msg *amqp.ChangeMessage) error {
	switch msg.Kind {
	case amqp.EventExpenseCreated, amqp.EventExpenseUpdated:
		return w.appendExpense(ctx, msg.ExpenseID)
	case amqp.EventExpenseDeleted:
		w.logger.InfoContext(ctx, "expense deleted upstream, journal rows kept",
			log.FieldOperation, log.OpConsumeEvent,
			log.FieldExpenseID, msg.ExpenseID)
		return nil
	case amqp.EventExpenseImported:
		w.logger.InfoContext(ctx, "import notification received, skipping bulk journal",
			log.FieldOperation, log.OpConsumeEvent,
			log.FieldCount, msg.Count)
		return nil
	case amqp.EventRatesRefreshed:
		return nil
	default:
		w.logger.WarnContext(ctx, "unknown change kind",
			log.FieldOperation, log.OpConsumeEvent,
			log.FieldEvent, msg.Kind)
		return nil
	}
}

func (w *ExportWorker) appendExpense(ctx context.Context, id string) error {
	expenses, err := w.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}

	for _, e := range expenses {
		if e.ID != id {
			continue
		}
		ref, err := w.appender.Append(ctx, e)
		if err != nil {
			return fmt.Errorf("append expense %s: %w", id, err)
		}
		w.logger.InfoContext(ctx, "expense journaled",
			log.FieldOperation, log.OpAppendSheetRow,
			log.FieldExpenseID, id,
			"row_ref", ref)
		return nil
	}

	// The expense may have been deleted between the event and now.
	// Requeueing would loop forever, so drop it.
	w.logger.WarnContext(ctx, "expense not found for journaling",
		log.FieldOperation, log.OpConsumeEvent,
		log.FieldExpenseID, id)
	return nil
}
