package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"outgo/internal/core"
)

const maxBodyBytes = 5 << 20 // uploads included

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// expensePayload is the wire shape of an expense. Price travels as a
// decimal string so clients never deal in cents.
type expensePayload struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

func (p expensePayload) toExpense() (core.Expense, error) {
	price, err := core.ParseDecimal(strings.TrimSpace(p.Price))
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          p.ID,
		Name:        sanitizeInput(p.Name),
		Price:       price,
		Description: sanitizeInput(p.Description),
		Date:        core.Date(strings.TrimSpace(p.Date)),
		Clock:       core.Clock(strings.TrimSpace(p.Time)),
		Currency:    strings.ToUpper(strings.TrimSpace(p.Currency)),
	}, nil
}

func fromExpense(e core.Expense) expensePayload {
	return expensePayload{
		ID:          e.ID,
		Name:        e.Name,
		Price:       e.Price.String(),
		Description: e.Description,
		Date:        string(e.Date),
		Time:        string(e.Clock),
		Currency:    e.Currency,
	}
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
