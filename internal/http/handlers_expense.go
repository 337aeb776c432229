package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.List(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.Notes = sanitizeInput(e.Notes)

	uid := userID(r)
	created, err := s.expenses.Create(r.Context(), uid, e)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	s.invalidateReports(uid)
	respondData(w, http.StatusCreated, map[string]any{"expense": created})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(r, &e); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = r.PathValue("id")
	e.Notes = sanitizeInput(e.Notes)

	uid := userID(r)
	updated, err := s.expenses.Update(r.Context(), uid, e)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	s.invalidateReports(uid)
	respondData(w, http.StatusOK, map[string]any{"expense": updated})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.expenses.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	s.invalidateReports(uid)
	respondData(w, http.StatusOK, map[string]any{"deleted": true})
}
