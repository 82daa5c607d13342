package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"outgo/internal/amqp"
	"outgo/internal/codec"
	"outgo/internal/core"
	"outgo/internal/currency"
	"outgo/internal/storage"
	"outgo/internal/summary"
)

type fakePublisher struct {
	published []*amqp.ChangeMessage
	fail      bool
}

func (p *fakePublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, msg)
	return nil
}

func newTestService(t *testing.T) (*ExpenseService, *fakePublisher) {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "outgo.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cur, err := currency.NewService(context.Background(), store, currency.Options{})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	pub := &fakePublisher{}
	return NewExpenseService(store, cur, pub, nil), pub
}

func expenseFixture(name string, cents int64, date core.Date) core.Expense {
	return core.Expense{
		ID:       core.NewID(),
		Name:     name,
		Price:    core.Money{Cents: cents},
		Date:     date,
		Clock:    "12:30",
		Currency: "USD",
	}
}

func TestExpenseService_CreateAndGet(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Expense{
		Name:  "Groceries",
		Price: core.Money{Cents: 4250},
		Date:  "2025-07-16",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() should mint an ID")
	}
	if created.Currency != "USD" {
		t.Errorf("Create() Currency = %q, want display currency USD", created.Currency)
	}
	if created.Clock == "" {
		t.Error("Create() should default the clock")
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Groceries" || got.Price.Cents != 4250 {
		t.Errorf("Get() = %+v, want stored expense", got)
	}

	if len(pub.published) != 1 || pub.published[0].Kind != amqp.EventExpenseCreated {
		t.Errorf("Create() should publish one %s event, got %+v", amqp.EventExpenseCreated, pub.published)
	}
}

func TestExpenseService_CreateInvalid(t *testing.T) {
	svc, pub := newTestService(t)

	_, err := svc.Create(context.Background(), core.Expense{
		Name:  "",
		Price: core.Money{Cents: 100},
		Date:  "2025-07-16",
	})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("Create() error = %v, want ErrEmptyName", err)
	}
	if len(pub.published) != 0 {
		t.Error("invalid expense should not publish events")
	}
}

func TestExpenseService_Update(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Expense{Name: "Coffee", Price: core.Money{Cents: 350}, Date: "2025-07-16"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	created.Price = core.Money{Cents: 400}
	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Price.Cents != 400 {
		t.Errorf("Update() Price = %d, want 400", updated.Price.Cents)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Price.Cents != 400 {
		t.Errorf("stored Price = %d, want 400", got.Price.Cents)
	}

	if pub.published[len(pub.published)-1].Kind != amqp.EventExpenseUpdated {
		t.Errorf("Update() should publish %s", amqp.EventExpenseUpdated)
	}

	t.Run("unknown ID", func(t *testing.T) {
		missing := expenseFixture("Ghost", 100, "2025-07-16")
		if _, err := svc.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestExpenseService_Delete(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Expense{Name: "Snack", Price: core.Money{Cents: 199}, Date: "2025-07-16"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	if pub.published[len(pub.published)-1].Kind != amqp.EventExpenseDeleted {
		t.Errorf("Delete() should publish %s", amqp.EventExpenseDeleted)
	}
}

func TestExpenseService_PublisherFailureDoesNotFailWrites(t *testing.T) {
	svc, pub := newTestService(t)
	pub.fail = true

	created, err := svc.Create(context.Background(), core.Expense{Name: "Taxi", Price: core.Money{Cents: 1200}, Date: "2025-07-16"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); err != nil {
		t.Errorf("expense should be stored despite publish failure: %v", err)
	}
}

func TestExpenseService_Import(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, core.Expense{Name: "Coffee", Price: core.Money{Cents: 350}, Date: "2025-07-16"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	data := []byte("Name,Price,Description,Date,Time\n" +
		"Coffee,3.50,,2025-07-16,12:30\n" +
		"Lunch,12.00,office,2025-07-16,13:00\n")

	outcome, err := svc.Import(ctx, "upload.csv", data, codec.Merge, codec.SkipDuplicates)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if outcome.Format != codec.FormatCSV {
		t.Errorf("Import() Format = %v, want csv", outcome.Format)
	}
	if outcome.Stats.Added != 1 || outcome.Stats.SkippedDuplicates != 1 {
		t.Errorf("Import() Stats = %+v, want 1 added, 1 duplicate skipped", outcome.Stats)
	}
	if outcome.Total != 2 {
		t.Errorf("Import() Total = %d, want 2", outcome.Total)
	}

	expenses, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("List() returned %d expenses, want 2", len(expenses))
	}

	last := pub.published[len(pub.published)-1]
	if last.Kind != amqp.EventExpenseImported || last.Count != 1 {
		t.Errorf("Import() should publish %s with count 1, got %+v", amqp.EventExpenseImported, last)
	}
}

func TestExpenseService_ExportAndSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	today := core.DateOf(time.Now())
	for _, e := range []core.Expense{
		{Name: "Coffee", Price: core.Money{Cents: 350}, Date: today},
		{Name: "Lunch", Price: core.Money{Cents: 1200}, Date: today},
	} {
		if _, err := svc.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	report, err := svc.Summary(ctx, summary.Today)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if report.Count != 2 {
		t.Errorf("Summary() Count = %d, want 2", report.Count)
	}
	if report.Total.Cents != 1550 {
		t.Errorf("Summary() Total = %d cents, want 1550", report.Total.Cents)
	}

	data, err := svc.Export(ctx, codec.FormatCSV, summary.Today)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Coffee") || !strings.Contains(text, "Lunch") {
		t.Errorf("Export() missing expenses:\n%s", text)
	}
}

func TestExpenseService_ExportAllIsCompleteBackup(t *testing.T) {
	ctx := context.Background()

	store, err := storage.Open(filepath.Join(t.TempDir(), "outgo.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cur, err := currency.NewService(ctx, store, currency.Options{})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	svc := NewExpenseService(store, cur, nil, nil)

	// Seed through the store so records the validator would reject (a
	// malformed date, a date outside the aggregation horizon) are present.
	stored := []core.Expense{
		expenseFixture("Recent", 1000, core.DateOf(time.Now())),
		expenseFixture("Corrupt", 2000, "not-a-date"),
		expenseFixture("Ancient", 3000, "2019-01-01"),
	}
	if err := store.SaveAll(ctx, stored); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	data, err := svc.Export(ctx, codec.FormatJSON, summary.All)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	result, err := codec.Import("expenses.json", data, "USD", time.Now())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(result.Expenses) != len(stored) {
		t.Fatalf("export round-trip returned %d expenses, want %d", len(result.Expenses), len(stored))
	}

	byID := make(map[string]core.Expense, len(result.Expenses))
	for _, e := range result.Expenses {
		byID[e.ID] = e
	}
	for _, want := range stored {
		got, ok := byID[want.ID]
		if !ok {
			t.Errorf("export dropped expense %q (%s)", want.Name, want.ID)
			continue
		}
		if got.Name != want.Name || got.Price != want.Price || got.Date != want.Date {
			t.Errorf("export round-trip mangled %q: got %+v, want %+v", want.Name, got, want)
		}
	}

	// Windowed exports still filter.
	data, err = svc.Export(ctx, codec.FormatJSON, summary.Today)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	result, err = codec.Import("expenses.json", data, "USD", time.Now())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(result.Expenses) != 1 || result.Expenses[0].Name != "Recent" {
		t.Errorf("windowed export returned %d expenses, want just the recent one", len(result.Expenses))
	}
}

func TestExpenseService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &ExpenseService{}

		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
