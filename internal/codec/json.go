package codec

import (
	"encoding/json"
	"time"

	"outgo/internal/core"
)

const (
	exportAppName = "outgo"
	exportVersion = "1.0"
)

// Envelope wraps an exported expense array with metadata. The envelope is
// preserved on import for round-trip compatibility; a bare top-level array
// is accepted too.
type Envelope struct {
	AppName       string       `json:"app_name"`
	ExportVersion string       `json:"export_version"`
	ExportDate    string       `json:"export_date"`
	Count         int          `json:"count"`
	Expenses      []jsonRecord `json:"expenses"`
}

// jsonRecord is one expense entry on the wire. Pointer fields distinguish
// absent from empty on import; export always writes every field.
type jsonRecord struct {
	ID          *string          `json:"id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Price       *json.RawMessage `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Time        *string          `json:"time,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
}

func toJSONRecord(e core.Expense) jsonRecord {
	price := json.RawMessage(e.Price.String())
	desc := e.Description
	date := string(e.Date)
	clock := string(e.Clock)
	return jsonRecord{
		ID:          &e.ID,
		Name:        &e.Name,
		Price:       &price,
		Description: &desc,
		Date:        &date,
		Time:        &clock,
		Currency:    &e.Currency,
	}
}

// ExportJSON writes the enveloped array. The export date is an RFC 3339
// timestamp; it is metadata only and ignored on import.
func ExportJSON(expenses []core.Expense, now time.Time) ([]byte, error) {
	env := Envelope{
		AppName:       exportAppName,
		ExportVersion: exportVersion,
		ExportDate:    now.Format(time.RFC3339),
		Count:         len(expenses),
		Expenses:      make([]jsonRecord, len(expenses)),
	}
	for i, e := range expenses {
		env.Expenses[i] = toJSONRecord(e)
	}
	return json.MarshalIndent(env, "", "  ")
}

// ImportJSON accepts either the envelope shape or a bare top-level array.
// Entries missing name, price or date are skipped and counted; entries
// without an identifier get a fresh one.
func ImportJSON(data []byte, defaultCurrency string) (*ImportResult, error) {
	var env Envelope
	entries := func() []jsonRecord {
		if err := json.Unmarshal(data, &env); err == nil && env.Expenses != nil {
			return env.Expenses
		}
		var bare []jsonRecord
		if err := json.Unmarshal(data, &bare); err == nil {
			return bare
		}
		return nil
	}()
	if entries == nil {
		return nil, &ParseError{Format: FormatJSON, Reason: "not a valid expense export (expected an object with an \"expenses\" array, or an array)"}
	}

	result := &ImportResult{Format: FormatJSON}
	for _, rec := range entries {
		e, ok := fromJSONRecord(rec, defaultCurrency)
		if !ok {
			result.Skipped++
			continue
		}
		result.Expenses = append(result.Expenses, e)
	}
	return result, nil
}

func fromJSONRecord(rec jsonRecord, defaultCurrency string) (core.Expense, bool) {
	if rec.Name == nil || *rec.Name == "" || rec.Price == nil || rec.Date == nil {
		return core.Expense{}, false
	}
	var price core.Money
	if err := price.UnmarshalJSON(*rec.Price); err != nil {
		return core.Expense{}, false
	}

	e := core.Expense{
		Name:     *rec.Name,
		Price:    price,
		Date:     core.Date(*rec.Date),
		Clock:    "00:00",
		Currency: defaultCurrency,
	}
	if rec.ID != nil && *rec.ID != "" {
		e.ID = *rec.ID
	} else {
		e.ID = core.NewID()
	}
	if rec.Description != nil {
		e.Description = *rec.Description
	}
	if rec.Time != nil && *rec.Time != "" {
		e.Clock = core.Clock(*rec.Time)
	}
	if rec.Currency != nil && *rec.Currency != "" {
		e.Currency = *rec.Currency
	}
	return e, true
}
