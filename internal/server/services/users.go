// Package services contains server-side business logic. Services own the
// *sql.DB handle and obtain repositories from a RepositoryManager, so the
// same repositories serve plain calls and transactions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/apierr"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/credentials"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	msgRequired      = "This field is required."
	msgInvalidEmail  = "Enter a valid email address."
	msgDuplicateUser = "user with this email already exists."
)

// UserService creates and looks up accounts.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	policy      *credentials.PasswordPolicy
	events      events.Publisher
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	policy *credentials.PasswordPolicy, pub events.Publisher, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		policy:      policy,
		events:      pub,
		logger:      logger,
	}
}

// CreateUser stores a new account and its blank profile in one transaction.
// An empty password leaves the account without a usable password.
func (s *UserService) CreateUser(ctx context.Context, email, password string, fields models.UserFields) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apierr.RequiredField("email", "Email")
	}
	if !credentials.ValidEmail(email) {
		return nil, apierr.InvalidEmail()
	}

	var hash string
	if password != "" {
		var err error
		if hash, err = s.hasher.Hash(password); err != nil {
			if errors.Is(err, auth.ErrPasswordTooLong) {
				return nil, apierr.FieldValidation("password", credentials.MsgTooLong)
			}
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        credentials.NormalizeEmail(email),
		PasswordHash: hash,
		IsActive:     boolOr(fields.IsActive, true),
		IsStaff:      boolOr(fields.IsStaff, false),
		IsSuperuser:  boolOr(fields.IsSuperuser, false),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created
		_, err = s.repomanager.Profiles(tx).Create(ctx, &models.Profile{UserID: user.ID})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, apierr.Conflict(msgDuplicateUser).WithCause(err)
		}
		return nil, err
	}

	return user, nil
}

// CreateSuperuser creates an active staff account with every permission.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	yes := true
	return s.CreateUser(ctx, email, password, models.UserFields{IsActive: &yes, IsStaff: &yes, IsSuperuser: &yes})
}

// Register is the public sign-up path. Field problems are reported together
// as a validation error keyed by field name.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	problems := map[string][]string{}

	switch {
	case strings.TrimSpace(email) == "":
		problems["email"] = []string{msgRequired}
	case !credentials.ValidEmail(email):
		problems["email"] = []string{msgInvalidEmail}
	}
	if password == "" {
		problems["password"] = []string{msgRequired}
	} else if msgs := s.policy.Violations(password, ""); len(msgs) > 0 {
		problems["password"] = msgs
	}
	if len(problems) > 0 {
		return nil, apierr.Validation(problems)
	}

	_, err := s.GetByNaturalKey(ctx, email)
	switch {
	case err == nil:
		return nil, apierr.FieldValidation("email", msgDuplicateUser)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	user, err := s.CreateUser(ctx, email, password, models.UserFields{})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, s.logger, events.New(events.UserRegistered, user.ID, user.Email))
	return user, nil
}

// GetByNaturalKey finds a user by email, ignoring case.
func (s *UserService) GetByNaturalKey(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, credentials.NormalizeEmail(email))
}

// Get returns the user with the given id. Ids that are not UUIDs cannot
// exist and are reported as not found.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// List returns all users, newest first.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
