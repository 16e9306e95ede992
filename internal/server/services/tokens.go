package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/apierr"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/credentials"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
)

const msgNoActiveAccount = "No active account found with the given credentials."

// TokenService logs users in, refreshes access tokens and resolves the
// user behind an access token.
type TokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	issuer      *auth.TokenIssuer
	events      events.Publisher
	logger      logging.Logger
}

func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	issuer *auth.TokenIssuer, pub events.Publisher, logger logging.Logger) *TokenService {
	return &TokenService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		events:      pub,
		logger:      logger,
	}
}

// Issuer exposes the token issuer, e.g. for cookie lifetimes.
func (s *TokenService) Issuer() *auth.TokenIssuer { return s.issuer }

// Login checks the credentials and returns a fresh token pair. Unknown
// emails, inactive accounts and wrong passwords fail identically.
func (s *TokenService) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	problems := map[string][]string{}
	if email == "" {
		problems["email"] = []string{msgRequired}
	}
	if password == "" {
		problems["password"] = []string{msgRequired}
	}
	if len(problems) > 0 {
		return nil, apierr.Validation(problems)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, credentials.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apierr.Unauthorized(msgNoActiveAccount)
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apierr.Unauthorized(msgNoActiveAccount)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apierr.Unauthorized(msgNoActiveAccount)
	}

	pair, err := s.issuer.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, s.logger, events.New(events.UserLoggedIn, user.ID, user.Email))
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated, so the returned pair has no Refresh.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (*auth.TokenPair, error) {
	if refresh == "" {
		return nil, apierr.FieldValidation("refresh", msgRequired)
	}

	claims, err := s.issuer.ParseRefresh(refresh)
	if err != nil {
		return nil, apierr.From(err)
	}

	user, err := s.activeUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	access, err := s.issuer.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &auth.TokenPair{Access: access, AccessLifetime: s.issuer.AccessLifetime()}, nil
}

// Authenticate returns the active user an access token was issued to.
func (s *TokenService) Authenticate(ctx context.Context, access string) (*models.User, error) {
	if access == "" {
		return nil, apierr.Unauthorized("")
	}
	claims, err := s.issuer.ParseAccess(access)
	if err != nil {
		return nil, apierr.From(err)
	}
	return s.activeUser(ctx, claims.Subject)
}

func (s *TokenService) activeUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apierr.Unauthorized("User not found.").WithCause(err)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apierr.Unauthorized("User is inactive.").WithCause(common.ErrorInactiveUser)
	}
	return user, nil
}
