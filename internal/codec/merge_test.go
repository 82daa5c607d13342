package codec

import (
	"testing"

	"outgo/internal/core"
)

func mergeFixtures() (existing, imported []core.Expense) {
	existing = []core.Expense{
		{ID: "e1", Name: "Coffee", Price: core.Money{Cents: 500}, Date: "2025-07-13", Clock: "08:00", Currency: "USD"},
		{ID: "e2", Name: "Lunch", Price: core.Money{Cents: 1200}, Date: "2025-07-13", Clock: "13:00", Currency: "USD"},
	}
	imported = []core.Expense{
		// duplicate of e1: same name, price and calendar day
		{ID: "i1", Name: "Coffee", Price: core.Money{Cents: 500}, Date: "2025-07-13", Clock: "09:30", Currency: "USD"},
		{ID: "i2", Name: "Dinner", Price: core.Money{Cents: 3000}, Date: "2025-07-13", Clock: "20:00", Currency: "USD"},
	}
	return existing, imported
}

func TestApplyReplace(t *testing.T) {
	existing, imported := mergeFixtures()
	out, stats, err := Apply(existing, imported, Replace, SkipDuplicates)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) != 2 || out[0].ID != "i1" || out[1].ID != "i2" {
		t.Fatalf("replace must adopt the imported set: %+v", out)
	}
	if stats.Added != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestApplyMergeSkipDuplicates(t *testing.T) {
	existing, imported := mergeFixtures()
	out, stats, err := Apply(existing, imported, Merge, SkipDuplicates)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3 (duplicate skipped)", len(out))
	}
	if stats.SkippedDuplicates != 1 || stats.Added != 1 {
		t.Fatalf("stats = %+v, want 1 skipped and 1 added", stats)
	}
	// the existing duplicate stays untouched
	if out[0].ID != "e1" || out[0].Clock != "08:00" {
		t.Fatalf("existing record modified: %+v", out[0])
	}
}

func TestApplyMergeReplaceMatching(t *testing.T) {
	existing, imported := mergeFixtures()
	out, stats, err := Apply(existing, imported, Merge, ReplaceMatching)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3", len(out))
	}
	if stats.Replaced != 1 || stats.Added != 1 {
		t.Fatalf("stats = %+v, want 1 replaced and 1 added", stats)
	}
	// the imported record takes the matching slot
	if out[0].ID != "i1" || out[0].Clock != "09:30" {
		t.Fatalf("matching record not replaced: %+v", out[0])
	}
}

func TestApplyMergeAllowDuplicates(t *testing.T) {
	existing, imported := mergeFixtures()
	out, stats, err := Apply(existing, imported, Merge, AllowDuplicates)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) != 4 || stats.Added != 2 {
		t.Fatalf("got %d records, stats %+v; want 4 and 2 added", len(out), stats)
	}
}

func TestApplyRejectsUnknownInputs(t *testing.T) {
	if _, _, err := Apply(nil, nil, MergeMode("upsert"), SkipDuplicates); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, _, err := Apply(nil, nil, Merge, DuplicatePolicy("dedupe")); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestApplyDoesNotMutateInputs(t *testing.T) {
	existing, imported := mergeFixtures()
	_, _, err := Apply(existing, imported, Merge, ReplaceMatching)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if existing[0].ID != "e1" {
		t.Fatalf("existing slice mutated: %+v", existing[0])
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"export.json": FormatJSON,
		"Backup.JSON": FormatJSON,
		"rows.csv":    FormatCSV,
		"list.txt":    FormatText,
		"notes.text":  FormatText,
	}
	for name, want := range cases {
		got, err := DetectFormat(name)
		if err != nil || got != want {
			t.Fatalf("DetectFormat(%q) = %v, %v", name, got, err)
		}
	}
	for _, name := range []string{"file.xlsx", "noext", "archive.zip"} {
		if _, err := DetectFormat(name); err == nil {
			t.Fatalf("DetectFormat(%q) should fail", name)
		}
	}
}
