package codec

import (
	"bytes"
	"encoding/csv"
	"strings"

	"outgo/internal/core"
)

// csvHeader is the full seven-column export header.
var csvHeader = []string{"ID", "Name", "Price", "Description", "Date", "Time", "Currency"}

// csvVariant identifies one accepted column layout. Each variant has its own
// row parser; the variant is decided once per file, not per row.
type csvVariant int

const (
	csvFull     csvVariant = 7 // id,name,price,description,date,time,currency
	csvRelaxed5 csvVariant = 5 // name,price,description,date,time
	csvRelaxed4 csvVariant = 4 // name,price,description,date
)

// ExportCSV writes the full seven-column shape with a header row. Quoting
// and quote-doubling are standard CSV.
func ExportCSV(expenses []core.Expense) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range expenses {
		row := []string{
			e.ID,
			e.Name,
			e.Price.String(),
			e.Description,
			string(e.Date),
			string(e.Clock),
			e.Currency,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportCSV reads the full export shape (header optional) or a relaxed
// hand-authored variant without id/currency columns. Rows with too few
// columns or an unparsable price are skipped and counted.
func ImportCSV(data []byte, defaultCurrency string) (*ImportResult, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // column counts are validated per variant
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Reason: err.Error()}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	rows, variant := detectCSVVariant(rows)

	result := &ImportResult{Format: FormatCSV}
	for _, row := range rows {
		var (
			e  core.Expense
			ok bool
		)
		switch variant {
		case csvFull:
			e, ok = parseFullRow(row, defaultCurrency)
		case csvRelaxed5:
			e, ok = parseRelaxedRow(row, 5, defaultCurrency)
		default:
			e, ok = parseRelaxedRow(row, 4, defaultCurrency)
		}
		if !ok {
			result.Skipped++
			continue
		}
		result.Expenses = append(result.Expenses, e)
	}
	return result, nil
}

// detectCSVVariant strips a recognized header row and picks the layout from
// it, falling back to the first row's column count for headerless files.
func detectCSVVariant(rows [][]string) ([][]string, csvVariant) {
	if isHeaderRow(rows[0]) {
		return rows[1:], csvFull
	}
	switch len(rows[0]) {
	case 5:
		return rows, csvRelaxed5
	case 4:
		return rows, csvRelaxed4
	default:
		return rows, csvFull
	}
}

func isHeaderRow(row []string) bool {
	if len(row) != len(csvHeader) {
		return false
	}
	for i, cell := range row {
		if !strings.EqualFold(strings.TrimSpace(cell), csvHeader[i]) {
			return false
		}
	}
	return true
}

func parseFullRow(row []string, defaultCurrency string) (core.Expense, bool) {
	if len(row) < 7 {
		return core.Expense{}, false
	}
	price, err := core.ParseDecimal(row[2])
	if err != nil {
		return core.Expense{}, false
	}
	e := core.Expense{
		ID:          strings.TrimSpace(row[0]),
		Name:        row[1],
		Price:       price,
		Description: row[3],
		Date:        core.Date(strings.TrimSpace(row[4])),
		Clock:       core.Clock(strings.TrimSpace(row[5])),
		Currency:    strings.TrimSpace(row[6]),
	}
	if e.Name == "" {
		return core.Expense{}, false
	}
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if e.Currency == "" {
		e.Currency = defaultCurrency
	}
	return e, true
}

func parseRelaxedRow(row []string, columns int, defaultCurrency string) (core.Expense, bool) {
	if len(row) < columns {
		return core.Expense{}, false
	}
	price, err := core.ParseDecimal(row[1])
	if err != nil {
		return core.Expense{}, false
	}
	name := row[0]
	if strings.TrimSpace(name) == "" {
		return core.Expense{}, false
	}
	e := core.Expense{
		ID:          core.NewID(),
		Name:        name,
		Price:       price,
		Description: row[2],
		Date:        core.Date(strings.TrimSpace(row[3])),
		Clock:       "00:00",
		Currency:    defaultCurrency,
	}
	if columns == 5 {
		e.Clock = core.Clock(strings.TrimSpace(row[4]))
	}
	return e, true
}
