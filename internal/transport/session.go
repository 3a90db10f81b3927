package transport

import (
	"errors"
	"net/http"

	"github.com/rpggio/syncteam/internal/domain/session"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	id, err := s.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("signed in", "user_id", id.UserID)
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Email == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	id, err := s.auth.Signup(r.Context(), session.SignupRequest{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Role:     in.Role,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, id)
}

// handleSession echoes the resolved identity without the token.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	out := *id
	out.Token = ""
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	writeData(w, http.StatusOK, id.User)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	err := s.auth.Logout(r.Context(), bearerToken(r))
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
