// Package summary computes date-window views over the in-memory expense
// collection. Every query is stateless and recomputed from the full
// snapshot; records whose date text does not parse are invisible to every
// window while remaining present in raw storage.
package summary

import (
	"errors"
	"sort"
	"time"

	"outgo/internal/core"
)

// Window is a date-range predicate relative to "now".
type Window string

const (
	Today Window = "today"
	Week  Window = "week"
	Month Window = "month"
	All   Window = "all"
)

// allWindowYears caps the "all" view so it does not grow without bound.
const allWindowYears = 3

var ErrUnknownWindow = errors.New("unknown aggregation window")

// ParseWindow maps user input onto a Window. Empty input means All.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case Today, Week, Month, All:
		return Window(s), nil
	case "":
		return All, nil
	default:
		return "", ErrUnknownWindow
	}
}

// Converter renders one amount in another currency. Satisfied by
// *currency.Service.
type Converter interface {
	Convert(m core.Money, from, to string) (core.Money, bool)
}

// Report is the result of one aggregation query.
type Report struct {
	Window   Window
	Items    []core.Expense // matching subset, date descending
	Count    int
	Total    core.Money // sum converted into Currency
	Currency string
	// Unconverted counts items whose currency had no usable rate; their
	// original amount was added to the total unchanged.
	Unconverted int
}

// Compute filters expenses by the window relative to now, sorts the matches
// by date descending (time of day as tie-break) and sums the amounts
// converted into target.
func Compute(expenses []core.Expense, w Window, now time.Time, conv Converter, target string) Report {
	report := Report{Window: w, Currency: target}

	for _, e := range expenses {
		day, ok := e.Date.Day()
		if !ok {
			continue
		}
		if !matches(w, day, now) {
			continue
		}
		report.Items = append(report.Items, e)
	}

	sort.SliceStable(report.Items, func(i, j int) bool {
		a, b := report.Items[i], report.Items[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.Clock > b.Clock
	})

	report.Count = len(report.Items)
	for _, e := range report.Items {
		converted, ok := conv.Convert(e.Price, e.Currency, target)
		if !ok {
			report.Unconverted++
		}
		report.Total.Cents += converted.Cents
	}
	return report
}

func matches(w Window, day, now time.Time) bool {
	switch w {
	case Today:
		return day.Format(core.DateLayout) == now.Format(core.DateLayout)
	case Week:
		ny, nw := now.ISOWeek()
		dy, dw := day.ISOWeek()
		return ny == dy && nw == dw
	case Month:
		return day.Year() == now.Year() && day.Month() == now.Month()
	case All:
		return !day.Before(now.AddDate(-allWindowYears, 0, 0))
	default:
		return false
	}
}
