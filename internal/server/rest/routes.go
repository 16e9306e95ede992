package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	apiBasePath   = "/api"
	usersBasePath = "/users"
	tokenBasePath = "/token"
	debugBasePath = "/debug"
)

const (
	paramID = "id"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

func (s *Server) routes(timeout time.Duration, debug bool) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(middleware.SetHeader(headerContentType, contentTypeJSON))

	r.NotFound(s.handle(func(w http.ResponseWriter, r *http.Request) error {
		return errNotFound
	}))
	r.MethodNotAllowed(s.handle(func(w http.ResponseWriter, r *http.Request) error {
		return errMethodNotAllowed
	}))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Get("/health", s.handle(s.handleHealth))

		r.With(s.throttle("login")).
			Post(tokenBasePath, s.handle(withAuthCookies(s.cookies, s.handleLogin)))
		r.Post(tokenBasePath+"/refresh", s.handle(withAuthCookies(s.cookies, s.handleRefresh)))

		r.With(s.throttle("register")).Post(usersBasePath, s.handle(s.handleRegister))

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get(usersBasePath, s.handle(s.handleListUsers))
			r.Route(usersBasePath+"/{"+paramID+"}", func(r chi.Router) {
				r.Get("/", s.handle(s.handleGetUser))

				r.Group(func(r chi.Router) {
					r.Use(s.requireSelf)
					r.Post("/change-password", s.handle(s.handleChangePassword))
					r.Post("/change-email", s.handle(s.handleChangeEmail))
					r.Get("/profile", s.handle(s.handleGetProfile))
					r.Patch("/profile", s.handle(s.handleUpdateProfile))
					r.Post("/profile/avatar", s.handle(s.handleAvatarUpload))
				})
			})
		})
	})

	if debug {
		r.Mount(debugBasePath, middleware.Profiler())
	}

	return r
}
