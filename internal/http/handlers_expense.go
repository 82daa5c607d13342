package http

import (
	"errors"
	"net/http"
	"strings"

	"outgo/internal/core"
	"outgo/internal/services"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/expenses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getExpense(w, r, id)
	case http.MethodPut:
		s.updateExpense(w, r, id)
	case http.MethodDelete:
		s.deleteExpense(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list expenses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}

	payload := make([]expensePayload, 0, len(expenses))
	for _, e := range expenses {
		payload = append(payload, fromExpense(e))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) getExpense(w http.ResponseWriter, r *http.Request, id string) {
	e, err := s.expenses.Get(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "get expense failed", "error", err, "expense_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load expense")
		return
	}
	writeJSON(w, http.StatusOK, fromExpense(e))
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := payload.toExpense()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid price: "+err.Error())
		return
	}
	e.ID = "" // server-assigned

	created, err := s.expenses.Create(r.Context(), e)
	if err != nil {
		s.respondWriteError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, fromExpense(created))
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, id string) {
	var payload expensePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := payload.toExpense()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid price: "+err.Error())
		return
	}
	e.ID = id

	updated, err := s.expenses.Update(r.Context(), e)
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		s.respondWriteError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, fromExpense(updated))
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, id string) {
	err := s.expenses.Delete(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "delete expense failed", "error", err, "expense_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// respondWriteError maps validation errors to 422 and everything else to 500.
func (s *Server) respondWriteError(w http.ResponseWriter, r *http.Request, err error) {
	for _, sentinel := range []error{
		core.ErrEmptyName,
		core.ErrNameTooLong,
		core.ErrDescriptionTooLong,
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidClock,
		core.ErrInvalidCurrency,
	} {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	s.logger.ErrorContext(r.Context(), "expense write failed", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to save expense")
}
