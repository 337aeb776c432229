package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"savingsGoals": goals})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.SavingsGoal
	if err := decodeJSON(r, &g); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g.Name = sanitizeInput(g.Name)

	created, err := s.goals.Create(r.Context(), userID(r), g)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusCreated, map[string]any{"savingsGoal": created})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.SavingsGoal
	if err := decodeJSON(r, &g); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g.ID = r.PathValue("id")
	g.Name = sanitizeInput(g.Name)

	updated, err := s.goals.Update(r.Context(), userID(r), g)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"savingsGoal": updated})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"deleted": true})
}

type progressRequest struct {
	Amount core.Money        `json:"amount"`
	Mode   core.ProgressMode `json:"mode"`
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.goals.UpdateProgress(r.Context(), userID(r), r.PathValue("id"), req.Amount, req.Mode)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"savingsGoal": updated})
}
