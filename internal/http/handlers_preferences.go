package http

import (
	"net/http"

	"fintrack/internal/services"
)

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.preferences.Get(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"preferences": prefs})
}

// handleUpdatePreferences merges the submitted fields into the stored
// preferences; omitted fields keep their value.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var update services.PreferencesUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prefs, err := s.preferences.Update(r.Context(), userID(r), update)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"preferences": prefs})
}
