package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"outgo/internal/core"
)

// Enumerated per-record decode errors. A failed record is dropped and
// counted, never fatal to the load.
var (
	ErrRecordNotObject = errors.New("record is not an object")
	ErrMissingID       = errors.New("record missing id")
	ErrMissingName     = errors.New("record missing name")
	ErrMissingPrice    = errors.New("record missing price")
	ErrBadPrice        = errors.New("record price not numeric")
	ErrMissingDate     = errors.New("record missing date")
)

// rawRecord is the persisted field map. Pointers distinguish an absent field
// from a present-but-zero one.
type rawRecord struct {
	ID          *string          `json:"id"`
	Name        *string          `json:"name"`
	Price       *json.RawMessage `json:"price"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
	Time        *string          `json:"time"`
	Currency    *string          `json:"currency"`
}

// decodeRecord validates one stored field map into an Expense. Description,
// time and currency are optional; identity, name, price and date are not.
// The date text is kept raw even when it does not parse: such records stay
// loadable, they just never match a date window.
func decodeRecord(data json.RawMessage) (core.Expense, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %v", ErrRecordNotObject, err)
	}
	if raw.ID == nil || *raw.ID == "" {
		return core.Expense{}, ErrMissingID
	}
	if raw.Name == nil || *raw.Name == "" {
		return core.Expense{}, ErrMissingName
	}
	if raw.Price == nil {
		return core.Expense{}, ErrMissingPrice
	}
	var price core.Money
	if err := price.UnmarshalJSON(*raw.Price); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %q", ErrBadPrice, string(*raw.Price))
	}
	if raw.Date == nil {
		return core.Expense{}, ErrMissingDate
	}

	e := core.Expense{
		ID:       *raw.ID,
		Name:     *raw.Name,
		Price:    price,
		Date:     core.Date(*raw.Date),
		Clock:    "00:00",
		Currency: "USD",
	}
	if raw.Description != nil {
		e.Description = *raw.Description
	}
	if raw.Time != nil {
		e.Clock = core.Clock(*raw.Time)
	}
	if raw.Currency != nil && *raw.Currency != "" {
		e.Currency = *raw.Currency
	}
	return e, nil
}

// encodeRecord produces the persisted field map for one expense.
func encodeRecord(e core.Expense) rawRecord {
	price := json.RawMessage(e.Price.String())
	desc := e.Description
	date := string(e.Date)
	clock := string(e.Clock)
	return rawRecord{
		ID:          &e.ID,
		Name:        &e.Name,
		Price:       &price,
		Description: &desc,
		Date:        &date,
		Time:        &clock,
		Currency:    &e.Currency,
	}
}
