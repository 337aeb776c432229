package http

import (
	"net/http"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Register(r.Context(), sanitizeInput(req.Name), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondAuth(w, http.StatusCreated, token, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}
	respondAuth(w, http.StatusOK, token, user)
}

// handleMe returns the account behind the presented token. The token is
// echoed back so clients can treat all three auth endpoints uniformly.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.GetUser(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, r, s.logger, err)
		return
	}

	header := r.Header.Get("Authorization")
	token := header[len("Bearer "):]
	respondAuth(w, http.StatusOK, token, user)
}
