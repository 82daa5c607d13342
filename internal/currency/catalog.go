// Package currency holds the static currency catalog, the USD-pivot rate
// table with remote refresh and static fallback, and the conversion and
// formatting rules built on them.
package currency

// Pivot is the common currency every conversion is routed through.
const Pivot = "USD"

// Currency is one static catalog entry.
type Currency struct {
	Code   string
	Symbol string
	Name   string
}

// catalog is the fixed, ordered set of supported currencies.
var catalog = []Currency{
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen"},
	{Code: "CNY", Symbol: "¥", Name: "Chinese Yuan"},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
	{Code: "RUB", Symbol: "₽", Name: "Russian Ruble"},
	{Code: "BRL", Symbol: "R$", Name: "Brazilian Real"},
	{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar"},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar"},
}

// fallbackRates maps every catalog code to a static units-per-USD rate.
// It guarantees a usable rate for each catalog currency even when the remote
// source and any cached table are both unavailable.
var fallbackRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.50,
	"CNY": 7.24,
	"INR": 83.10,
	"RUB": 92.50,
	"BRL": 4.97,
	"CAD": 1.36,
	"AUD": 1.52,
}

// Catalog returns the fixed ordered list of supported currencies.
func Catalog() []Currency {
	out := make([]Currency, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether code is in the catalog.
func Known(code string) bool {
	for _, c := range catalog {
		if c.Code == code {
			return true
		}
	}
	return false
}

// SymbolFor returns the display symbol for code, or "" for unknown codes.
func SymbolFor(code string) string {
	for _, c := range catalog {
		if c.Code == code {
			return c.Symbol
		}
	}
	return ""
}

// FallbackRates returns a copy of the static rate table.
func FallbackRates() map[string]float64 {
	out := make(map[string]float64, len(fallbackRates))
	for k, v := range fallbackRates {
		out[k] = v
	}
	return out
}
