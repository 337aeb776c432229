package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/report"
)

// handleMonthlyReport serves the month overview, cached per user and
// month. A cache miss recomputes from the live expense and category lists.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	year, month := parseYearMonth(r)

	key := fmt.Sprintf("%s:%04d-%02d", uid, year, month)
	if overview, ok := s.reportCache.Get(key); ok {
		respondData(w, http.StatusOK, map[string]any{"report": overview})
		return
	}

	expenses, err := s.expenses.List(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	categories, err := s.categories.List(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}

	overview := report.BuildMonthOverview(expenses, categories, year, month)
	s.reportCache.Set(key, overview)
	respondData(w, http.StatusOK, map[string]any{"report": overview})
}
