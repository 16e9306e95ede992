// Package rest is the HTTP boundary of the accounts server: a chi router
// under /api that decodes requests, calls the services and renders results
// and errors as JSON.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/health"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type TokenService interface {
	Login(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refresh string) (*auth.TokenPair, error)
	Authenticate(ctx context.Context, access string) (*models.User, error)
}

type MutationService interface {
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ChangeEmail(ctx context.Context, userID, oldEmail, newEmail string) error
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, u services.ProfileUpdate) (*models.Profile, error)
	AvatarUploadURL(ctx context.Context, userID, filename string) (*services.AvatarUpload, error)
	AvatarURL(ctx context.Context, p *models.Profile) (string, error)
}

// Services are the collaborators the handlers call.
type Services struct {
	Users     UserService
	Tokens    TokenService
	Mutations MutationService
	Profiles  ProfileService
	Health    *health.Checker
	Limiter   ratelimit.Limiter
}

type Server struct {
	address string
	logger  logging.Logger
	svc     Services
	cookies cookieSettings
	router  http.Handler
}

func NewServer(cfg *config.Config, l logging.Logger, svc Services) *Server {
	if svc.Limiter == nil {
		svc.Limiter = ratelimit.Nop{}
	}
	if svc.Health == nil {
		svc.Health = health.NewChecker()
	}
	s := &Server{
		address: cfg.HTTPAddr,
		logger:  l.With("module", "http_server"),
		svc:     svc,
		cookies: cookieSettings{
			AccessName:  cfg.AccessTokenName,
			RefreshName: cfg.RefreshTokenName,
		},
	}
	s.router = s.routes(cfg.RequestTimeout, cfg.Debug)
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
