package http

import (
	"errors"
	"net/http"
	"strings"

	"outgo/internal/summary"
)

type summaryResponse struct {
	Window      string           `json:"window"`
	Count       int              `json:"count"`
	Total       string           `json:"total"`
	Currency    string           `json:"currency"`
	Unconverted int              `json:"unconverted,omitempty"`
	// RatesFallback signals that totals were converted with the static
	// fallback table because the last refresh failed.
	RatesFallback bool             `json:"rates_fallback,omitempty"`
	Items         []expensePayload `json:"items"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	window, err := summary.ParseWindow(strings.TrimSpace(r.URL.Query().Get("window")))
	if errors.Is(err, summary.ErrUnknownWindow) {
		writeError(w, http.StatusBadRequest, "unknown window, use today, week, month or all")
		return
	}

	cacheKey := string(window) + "@" + s.currency.Current()
	report, cached := s.summaryCache.Get(cacheKey)
	if !cached {
		report, err = s.expenses.Summary(r.Context(), window)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "summary failed", "error", err, "window", window)
			writeError(w, http.StatusInternalServerError, "failed to compute summary")
			return
		}
		s.summaryCache.Set(cacheKey, report)
	}

	resp := summaryResponse{
		Window:        string(report.Window),
		Count:         report.Count,
		Total:         report.Total.String(),
		Currency:      report.Currency,
		Unconverted:   report.Unconverted,
		RatesFallback: s.ratesFallback.Load(),
		Items:         make([]expensePayload, 0, len(report.Items)),
	}
	for _, e := range report.Items {
		resp.Items = append(resp.Items, fromExpense(e))
	}
	writeJSON(w, http.StatusOK, resp)
}
