package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"outgo/internal/core"
	"outgo/internal/currency"
)

// ImportText ingests a plain list: each non-empty line becomes a zero-price
// expense named after the line, dated today. Content that looks delimited is
// handed to the CSV parser first; the line mode is the fallback.
func ImportText(data []byte, defaultCurrency string, now time.Time) (*ImportResult, error) {
	if strings.ContainsAny(string(data), ",;") {
		if res, err := ImportCSV(data, defaultCurrency); err == nil && len(res.Expenses) > 0 {
			res.Format = FormatText
			return res, nil
		}
	}

	result := &ImportResult{Format: FormatText}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		result.Expenses = append(result.Expenses, core.Expense{
			ID:       core.NewID(),
			Name:     line,
			Price:    core.Money{},
			Date:     core.DateOf(now),
			Clock:    "00:00",
			Currency: defaultCurrency,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Format: FormatText, Reason: err.Error()}
	}
	return result, nil
}

// ExportText renders a human-readable summary. It is not meant to
// round-trip through ImportText.
func ExportText(expenses []core.Expense) []byte {
	var b strings.Builder
	for _, e := range expenses {
		fmt.Fprintf(&b, "%s %s  %s", e.Date, e.Clock, e.Name)
		if e.Description != "" {
			fmt.Fprintf(&b, " (%s)", e.Description)
		}
		fmt.Fprintf(&b, "  %s\n", currency.Format(e.Price, e.Currency))
	}
	return []byte(b.String())
}
