package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Name = sanitizeInput(c.Name)

	uid := userID(r)
	created, err := s.categories.Create(r.Context(), uid, c)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	s.invalidateReports(uid)
	respondData(w, http.StatusCreated, map[string]any{"category": created})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = r.PathValue("id")
	c.Name = sanitizeInput(c.Name)

	uid := userID(r)
	updated, err := s.categories.Update(r.Context(), uid, c)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	s.invalidateReports(uid)
	respondData(w, http.StatusOK, map[string]any{"category": updated})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.categories.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	s.invalidateReports(uid)
	respondData(w, http.StatusOK, map[string]any{"deleted": true})
}
