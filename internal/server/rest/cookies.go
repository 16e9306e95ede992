package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
)

// cookieSettings names the cookies tokens travel in.
type cookieSettings struct {
	AccessName  string
	RefreshName string
}

// tokenHandler produces the token payload of a response.
type tokenHandler func(r *http.Request) (*auth.TokenPair, error)

type tokenResponse struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
}

// withAuthCookies turns a token handler into an AppHandler that, once the
// payload is final, sets an auth cookie for every token in it (refresh
// first, then access) and writes the payload as the 200 body.
func withAuthCookies(cs cookieSettings, h tokenHandler) AppHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		pair, err := h(r)
		if err != nil {
			return err
		}

		if pair.Refresh != "" {
			http.SetCookie(w, authCookie(cs.RefreshName, pair.Refresh, pair.RefreshLifetime))
		}
		if pair.Access != "" {
			http.SetCookie(w, authCookie(cs.AccessName, pair.Access, pair.AccessLifetime))
		}

		respondJSON(w, http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
		return nil
	}
}

func authCookie(name, value string, lifetime time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(lifetime / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
