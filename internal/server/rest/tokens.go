package rest

import (
	"net/http"

	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) handleLogin(r *http.Request) (*auth.TokenPair, error) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	return s.svc.Tokens.Login(r.Context(), req.Email, req.Password)
}

// handleRefresh takes the refresh token from the body, or from the refresh
// cookie when the body has none.
func (s *Server) handleRefresh(r *http.Request) (*auth.TokenPair, error) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if req.Refresh == "" {
		if c, err := r.Cookie(s.cookies.RefreshName); err == nil {
			req.Refresh = c.Value
		}
	}
	return s.svc.Tokens.Refresh(r.Context(), req.Refresh)
}
