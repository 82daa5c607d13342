package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outgo/internal/amqp"
	"outgo/internal/codec"
	"outgo/internal/core"
	"outgo/internal/currency"
	"outgo/internal/log"
	"outgo/internal/storage"
	"outgo/internal/summary"
)

var ErrNotFound = errors.New("expense not found")

// Publisher sends change notifications. *amqp.Client satisfies it; a nil
// publisher turns notifications off.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// ExpenseService orchestrates expense operations across the store, the
// currency service and the change-event pipeline.
type ExpenseService struct {
	store     *storage.Store
	currency  *currency.Service
	publisher Publisher
	logger    *log.Logger
}

func NewExpenseService(store *storage.Store, cur *currency.Service, publisher Publisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentApp})
	}
	return &ExpenseService{
		store:     store,
		currency:  cur,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns every stored expense.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	return s.store.LoadAll(ctx)
}

// Get returns the expense with the given ID.
func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	expenses, err := s.store.LoadAll(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	for _, e := range expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, ErrNotFound
}

// Create validates and stores a new expense. A missing ID is minted and a
// missing currency defaults to the current display currency.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if e.Currency == "" {
		e.Currency = s.currency.Current()
	}
	if e.Clock == "" {
		e.Clock = core.ClockOf(time.Now())
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	expenses, err := s.store.LoadAll(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	expenses = append(expenses, e)
	if err := s.store.SaveAll(ctx, expenses); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewChangeMessage(amqp.EventExpenseCreated, e.ID))
	s.logger.InfoContext(ctx, "expense created",
		log.FieldOperation, log.OpCreateExpense,
		log.FieldExpenseID, e.ID)
	return e, nil
}

// Update replaces the stored expense with the same ID.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		return core.Expense{}, ErrNotFound
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	expenses, err := s.store.LoadAll(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	found := false
	for i := range expenses {
		if expenses[i].ID == e.ID {
			expenses[i] = e
			found = true
			break
		}
	}
	if !found {
		return core.Expense{}, ErrNotFound
	}
	if err := s.store.SaveAll(ctx, expenses); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewChangeMessage(amqp.EventExpenseUpdated, e.ID))
	s.logger.InfoContext(ctx, "expense updated",
		log.FieldOperation, log.OpUpdateExpense,
		log.FieldExpenseID, e.ID)
	return e, nil
}

// Delete removes the expense with the given ID.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	expenses, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	kept := expenses[:0]
	found := false
	for _, e := range expenses {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return ErrNotFound
	}
	if err := s.store.SaveAll(ctx, kept); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}

	s.publish(ctx, amqp.NewChangeMessage(amqp.EventExpenseDeleted, id))
	s.logger.InfoContext(ctx, "expense deleted",
		log.FieldOperation, log.OpDeleteExpense,
		log.FieldExpenseID, id)
	return nil
}

// ImportOutcome reports what an import did to the collection.
type ImportOutcome struct {
	Format codec.Format
	Stats  codec.MergeStats
	// Skipped counts records the codec could not parse.
	Skipped int
	Total   int
}

// Import parses an uploaded file and merges it into the collection.
func (s *ExpenseService) Import(ctx context.Context, filename string, data []byte, mode codec.MergeMode, policy codec.DuplicatePolicy) (ImportOutcome, error) {
	result, err := codec.Import(filename, data, s.currency.Current(), time.Now())
	if err != nil {
		return ImportOutcome{}, err
	}

	existing, err := s.store.LoadAll(ctx)
	if err != nil {
		return ImportOutcome{}, err
	}

	merged, stats, err := codec.Apply(existing, result.Expenses, mode, policy)
	if err != nil {
		return ImportOutcome{}, err
	}

	if err := s.store.SaveAll(ctx, merged); err != nil {
		return ImportOutcome{}, fmt.Errorf("save imported expenses: %w", err)
	}

	s.publish(ctx, amqp.NewBatchMessage(amqp.EventExpenseImported, stats.Added+stats.Replaced))
	s.logger.InfoContext(ctx, "expenses imported",
		log.FieldOperation, log.OpImportExpenses,
		log.FieldFormat, string(result.Format),
		log.FieldCount, stats.Added,
		log.FieldSkipped, result.Skipped+stats.SkippedDuplicates)

	return ImportOutcome{
		Format:  result.Format,
		Stats:   stats,
		Skipped: result.Skipped,
		Total:   len(merged),
	}, nil
}

// Export serializes the expenses matching the window in the given format.
// An "all" export is a backup, not an aggregation: it carries every stored
// record, including ones whose date text no window can parse.
func (s *ExpenseService) Export(ctx context.Context, format codec.Format, w summary.Window) ([]byte, error) {
	expenses, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if w != summary.All {
		report := summary.Compute(expenses, w, now, s.currency, s.currency.Current())
		expenses = report.Items
	}

	data, err := codec.Export(format, expenses, now)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "expenses exported",
		log.FieldOperation, log.OpExportExpenses,
		log.FieldFormat, string(format),
		log.FieldWindow, string(w),
		log.FieldCount, len(expenses))
	return data, nil
}

// Summary computes the aggregate report for a window in the display currency.
func (s *ExpenseService) Summary(ctx context.Context, w summary.Window) (summary.Report, error) {
	expenses, err := s.store.LoadAll(ctx)
	if err != nil {
		return summary.Report{}, err
	}
	return summary.Compute(expenses, w, time.Now(), s.currency, s.currency.Current()), nil
}

func (s *ExpenseService) publish(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.publisher == nil {
		s.logger.Debug("change publisher not configured, dropping event",
			log.FieldEvent, msg.Kind)
		return
	}
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		// The store is the source of truth; a lost notification only
		// delays the sheet export.
		s.logger.WarnContext(ctx, "failed to publish change message",
			log.FieldEvent, msg.Kind,
			log.FieldError, err)
	}
}

// Close closes the underlying store and publisher connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
