package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophaccounts/internal/server/apierr"
)

var (
	errNotFound         = apierr.NotFound("")
	errMethodNotAllowed = &apierr.Error{Code: "method_not_allowed", Detail: "Method not allowed.", Status: http.StatusMethodNotAllowed}
)

// AppHandler is a handler that reports failure by returning an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// handle adapts an AppHandler to http.HandlerFunc. Returned errors are
// logged and written as {"code": ..., "detail": ...}.
func (s *Server) handle(h AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apierr.From(err)
	ctx := r.Context()

	if e.Status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug(ctx, "client error", "method", r.Method, "path", r.URL.Path, "code", e.Code, "error", err)
	}

	if e.RetryAfter > 0 {
		secs := int(e.RetryAfter.Seconds() + 0.999)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	if e.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	respondJSON(w, e.Status, e.Body())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"server_error","detail":"Internal server error."}`))
		return
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondNoContent(w http.ResponseWriter) {
	w.Header().Del(headerContentType)
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apierr.Parse(err)
	}
	return nil
}
