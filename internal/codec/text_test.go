package codec

import (
	"strings"
	"testing"
	"time"
)

var textNow = time.Date(2025, 7, 13, 9, 0, 0, 0, time.UTC)

func TestImportTextSimpleList(t *testing.T) {
	data := []byte("Milk\n\n  Bread  \nCinema tickets\n")
	res, err := ImportText(data, "EUR", textNow)
	if err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	if len(res.Expenses) != 3 {
		t.Fatalf("got %d expenses, want 3", len(res.Expenses))
	}
	for i, name := range []string{"Milk", "Bread", "Cinema tickets"} {
		e := res.Expenses[i]
		if e.Name != name {
			t.Fatalf("item %d name = %q, want %q", i, e.Name, name)
		}
		if e.Price.Cents != 0 {
			t.Fatalf("simple-list items are zero price, got %d", e.Price.Cents)
		}
		if e.Date != "2025-07-13" {
			t.Fatalf("item %d dated %s, want today", i, e.Date)
		}
		if e.Currency != "EUR" || e.ID == "" {
			t.Fatalf("defaults not applied: %+v", e)
		}
	}
}

func TestImportTextPrefersCSVWhenDelimited(t *testing.T) {
	data := []byte("Coffee,5.00,morning,2025-07-13\nLunch,12.00,,2025-07-13\n")
	res, err := ImportText(data, "USD", textNow)
	if err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	if res.Format != FormatText {
		t.Fatalf("format = %s, want txt (CSV content inside a .txt upload)", res.Format)
	}
	if len(res.Expenses) != 2 {
		t.Fatalf("got %d expenses, want 2", len(res.Expenses))
	}
	if res.Expenses[0].Price.Cents != 500 {
		t.Fatalf("CSV-style content must parse prices, got %d", res.Expenses[0].Price.Cents)
	}
}

func TestImportTextCommaProseFallsBackToLines(t *testing.T) {
	data := []byte("Milk, eggs and bread\nSomething else, cheap\n")
	res, err := ImportText(data, "USD", textNow)
	if err != nil {
		t.Fatalf("ImportText: %v", err)
	}
	if len(res.Expenses) != 2 {
		t.Fatalf("got %d expenses, want 2", len(res.Expenses))
	}
	if res.Expenses[0].Name != "Milk, eggs and bread" {
		t.Fatalf("prose line mangled: %q", res.Expenses[0].Name)
	}
}

func TestExportTextSummary(t *testing.T) {
	out := string(ExportText(sampleExpenses()))
	if !strings.Contains(out, "Coffee") || !strings.Contains(out, "$5.00") {
		t.Fatalf("summary missing fields:\n%s", out)
	}
	if !strings.Contains(out, "2025-07-13") {
		t.Fatalf("summary missing date:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Fatalf("expected one line per expense, got %d", lines)
	}
}
