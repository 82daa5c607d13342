package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"outgo/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "outgo.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadAllEmptyStore(t *testing.T) {
	s := newTestStore(t)
	got, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %d records", len(got))
	}
}

func TestSaveAllLoadAllRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []core.Expense{
		{ID: "a", Name: "Coffee", Price: core.Money{Cents: 500}, Description: "morning", Date: "2025-07-13", Clock: "08:15", Currency: "USD"},
		{ID: "b", Name: "Tickets, two", Price: core.Money{Cents: 12999}, Description: `he said "go"`, Date: "2025-07-14", Clock: "19:30", Currency: "EUR"},
		{ID: "c", Name: "Broken date", Price: core.Money{Cents: 0}, Date: "not-a-date", Clock: "00:00", Currency: "USD"},
	}
	if err := s.SaveAll(ctx, in); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d records, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], in[i])
		}
	}
}

func TestSaveAllOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []core.Expense{{ID: "a", Name: "One", Price: core.Money{Cents: 1}, Date: "2025-01-01", Clock: "10:00", Currency: "USD"}}
	if err := s.SaveAll(ctx, first); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := s.SaveAll(ctx, nil); err != nil {
		t.Fatalf("SaveAll empty: %v", err)
	}
	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("save is a full overwrite; got %d records", len(got))
	}
}

func TestLoadAllDropsMalformedEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// One good record surrounded by entries missing required fields.
	blob := `[
		{"name":"no id","price":1.00,"date":"2025-01-01"},
		{"id":"ok","name":"Good","price":"5.00","description":"","date":"2025-01-02","time":"12:00","currency":"EUR"},
		{"id":"x","price":1.00,"date":"2025-01-03"},
		{"id":"y","name":"bad price","price":"abc","date":"2025-01-04"},
		{"id":"z","name":"no date","price":2.50},
		"not an object"
	]`
	if err := s.set(ctx, keyExpenses, []byte(blob)); err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want only the decodable one", len(got))
	}
	e := got[0]
	if e.ID != "ok" || e.Name != "Good" || e.Price.Cents != 500 || e.Date != "2025-01-02" || e.Clock != "12:00" || e.Currency != "EUR" {
		t.Fatalf("decoded record mismatch: %+v", e)
	}
}

func TestLoadAllDefaultsOptionalFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	blob := `[{"id":"a","name":"Bare","price":3,"date":"2025-02-01"}]`
	if err := s.set(ctx, keyExpenses, []byte(blob)); err != nil {
		t.Fatalf("seed blob: %v", err)
	}
	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Clock != "00:00" || got[0].Currency != "USD" || got[0].Description != "" {
		t.Fatalf("optional defaults wrong: %+v", got[0])
	}
	if got[0].Price.Cents != 300 {
		t.Fatalf("integer price = %d cents, want 300", got[0].Price.Cents)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if code, err := s.DisplayCurrency(ctx); err != nil || code != "" {
		t.Fatalf("unset currency = %q, %v", code, err)
	}
	if err := s.SetDisplayCurrency(ctx, "EUR"); err != nil {
		t.Fatalf("SetDisplayCurrency: %v", err)
	}
	if code, _ := s.DisplayCurrency(ctx); code != "EUR" {
		t.Fatalf("currency = %q, want EUR", code)
	}

	if rates, err := s.Rates(ctx); err != nil || rates != nil {
		t.Fatalf("unset rates = %v, %v", rates, err)
	}
	want := map[string]float64{"USD": 1, "EUR": 0.9}
	if err := s.SetRates(ctx, want); err != nil {
		t.Fatalf("SetRates: %v", err)
	}
	rates, err := s.Rates(ctx)
	if err != nil || len(rates) != 2 || rates["EUR"] != 0.9 {
		t.Fatalf("rates = %v, %v", rates, err)
	}

	if ts, err := s.RatesUpdatedAt(ctx); err != nil || !ts.IsZero() {
		t.Fatalf("unset timestamp = %v, %v", ts, err)
	}
	stamp := time.Date(2025, 7, 13, 8, 0, 0, 0, time.UTC)
	if err := s.SetRatesUpdatedAt(ctx, stamp); err != nil {
		t.Fatalf("SetRatesUpdatedAt: %v", err)
	}
	if ts, _ := s.RatesUpdatedAt(ctx); !ts.Equal(stamp) {
		t.Fatalf("timestamp = %v, want %v", ts, stamp)
	}
}
