package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// envelope is the wire shape of every API response. Token is set only on
// auth responses; exactly one of Data and Message is populated.
type envelope struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, envelope{Status: "success", Data: data})
}

func respondAuth(w http.ResponseWriter, statusCode int, token string, user core.User) {
	writeJSON(w, statusCode, envelope{
		Status: "success",
		Token:  token,
		Data:   map[string]any{"user": user},
	})
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, envelope{Status: "error", Message: message})
}

// respondServiceError maps domain errors onto the status contract:
// validation 422, not found 404, conflict 409, bad credentials 401.
// Anything else is a 500 with a generic message; the cause is logged, not
// leaked.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	switch {
	case core.IsValidation(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, core.ErrConflict):
		respondError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
