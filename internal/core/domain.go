package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// DateLayout is the fixed storage format for expense dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the fixed storage format for the time of day.
	ClockLayout = "15:04"

	MaxNameLen        = 35
	MaxDescriptionLen = 350
)

type (
	// Date holds the raw yyyy-MM-dd text of an expense date. The raw form is
	// kept on the record: a malformed date stays visible in listings but is
	// excluded from every date-bounded aggregation.
	Date string

	// Clock holds the raw HH:mm text of the time of day.
	Clock string

	// Expense is a single recorded spending event. Identity is the ID field;
	// all other fields are payload.
	Expense struct {
		ID          string
		Name        string
		Price       Money
		Description string
		Date        Date
		Clock       Clock
		Currency    string
	}
)

var (
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidClock       = errors.New("invalid time")
	ErrInvalidCurrency    = errors.New("invalid currency code")
)

// NewID mints an expense identifier.
func NewID() string {
	return uuid.NewString()
}

// NewExpense builds an expense with a freshly minted identifier.
func NewExpense(name string, price Money, description string, date Date, clock Clock, currency string) Expense {
	return Expense{
		ID:          NewID(),
		Name:        name,
		Price:       price,
		Description: description,
		Date:        date,
		Clock:       clock,
		Currency:    currency,
	}
}

// DateOf formats t in the fixed date layout.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ClockOf formats t in the fixed time-of-day layout.
func ClockOf(t time.Time) Clock {
	return Clock(t.Format(ClockLayout))
}

// Day parses the date text. The boolean is false for malformed dates.
func (d Date) Day() (time.Time, bool) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Valid reports whether the date text parses under the fixed layout.
func (d Date) Valid() bool {
	_, ok := d.Day()
	return ok
}

// Valid reports whether the time-of-day text parses under the fixed layout.
func (c Clock) Valid() bool {
	_, err := time.Parse(ClockLayout, string(c))
	return err == nil
}

// SameIdentity reports whether two expenses refer to the same record.
// Update and delete match on identity, never on payload.
func (e Expense) SameIdentity(other Expense) bool {
	return e.ID != "" && e.ID == other.ID
}

// SameContent reports whether two expenses are duplicates for merge purposes:
// same name, same price, same calendar day.
func (e Expense) SameContent(other Expense) bool {
	return e.Name == other.Name && e.Price == other.Price && e.Date == other.Date
}

// Validate checks manual-entry constraints. Stored or imported records are
// never validated this way; entry validation blocks a save, nothing else.
func (e Expense) Validate() error {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(e.Name) > MaxNameLen {
		return ErrNameTooLong
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if e.Price.Cents < 0 {
		return ErrInvalidAmount
	}
	if !e.Date.Valid() {
		return ErrInvalidDate
	}
	if !e.Clock.Valid() {
		return ErrInvalidClock
	}
	if len(e.Currency) != 3 || strings.ToUpper(e.Currency) != e.Currency {
		return ErrInvalidCurrency
	}
	return nil
}
