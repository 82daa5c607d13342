package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"outgo/internal/currency"
)

type currencyInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	catalog := currency.Catalog()
	payload := make([]currencyInfo, 0, len(catalog))
	for _, c := range catalog {
		payload = append(payload, currencyInfo{Code: c.Code, Name: c.Name, Symbol: c.Symbol})
	}
	writeJSON(w, http.StatusOK, payload)
}

type currencySelection struct {
	Currency string `json:"currency"`
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, currencySelection{Currency: s.currency.Current()})
	case http.MethodPut:
		var selection currencySelection
		if err := decodeBody(r, &selection); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		code := strings.ToUpper(strings.TrimSpace(selection.Currency))
		if err := s.currency.SetCurrency(r.Context(), code); err != nil {
			if errors.Is(err, currency.ErrUnknownCurrency) {
				writeError(w, http.StatusUnprocessableEntity, "unknown currency code")
				return
			}
			s.logger.ErrorContext(r.Context(), "set currency failed", "error", err, "currency", code)
			writeError(w, http.StatusInternalServerError, "failed to set currency")
			return
		}
		writeJSON(w, http.StatusOK, currencySelection{Currency: code})
	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type ratesResponse struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	UpdatedAt string             `json:"updated_at,omitempty"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rates := make(map[string]float64)
	for _, c := range currency.Catalog() {
		if rate, ok := s.currency.Rate(c.Code); ok {
			rates[c.Code] = rate
		}
	}

	resp := ratesResponse{Base: currency.Pivot, Rates: rates}
	if t := s.currency.LastUpdate(); !t.IsZero() {
		resp.UpdatedAt = t.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefreshRates kicks off a refresh without blocking the caller. The
// currency service coalesces concurrent refreshes.
func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// The request context dies with the response; the refresh should not.
	s.currency.RefreshAsync(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}
