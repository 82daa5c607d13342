// Package codec maps the expense collection to and from its three external
// representations: JSON (preferred, full round-trip), CSV (full and relaxed
// column variants) and plain text (shopping-list ingestion, summary export).
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"outgo/internal/core"
)

// Format is an external file representation, detected by file extension.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file is empty")
)

// ParseError is the distinguished parse-failed outcome. Reason is written
// for the user, not the log.
type ParseError struct {
	Format Format
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot read %s file: %s", e.Format, e.Reason)
}

// DetectFormat picks the codec from a file name's extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".txt", ".text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ImportResult carries the parsed records plus what had to be dropped along
// the way. A non-nil result means the file as a whole was readable; Skipped
// entries are per-record casualties, never fatal.
type ImportResult struct {
	Format   Format
	Expenses []core.Expense
	Skipped  int
}

// Import parses data in the format detected from filename. defaultCurrency
// fills entries that carry no currency; now supplies dates for formats that
// carry none.
func Import(filename string, data []byte, defaultCurrency string, now time.Time) (*ImportResult, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyFile
	}
	switch format {
	case FormatJSON:
		return ImportJSON(data, defaultCurrency)
	case FormatCSV:
		return ImportCSV(data, defaultCurrency)
	default:
		return ImportText(data, defaultCurrency, now)
	}
}

// Export renders expenses in the requested format. JSON and CSV round-trip
// through Import; text is a human-readable summary only.
func Export(format Format, expenses []core.Expense, now time.Time) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportJSON(expenses, now)
	case FormatCSV:
		return ExportCSV(expenses)
	case FormatText:
		return ExportText(expenses), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
