package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/apierr"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/credentials"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
)

// MutationService changes the credentials of an existing account. Every
// precondition is checked before anything is written, and each change
// updates a single column.
type MutationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	policy      *credentials.PasswordPolicy
	events      events.Publisher
	logger      logging.Logger
}

func NewMutationService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	policy *credentials.PasswordPolicy, pub events.Publisher, logger logging.Logger) *MutationService {
	return &MutationService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		policy:      policy,
		events:      pub,
		logger:      logger,
	}
}

// ChangePassword replaces the password of userID after verifying the old
// one and checking the new one against the policy, email included.
func (s *MutationService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := requireFields(map[string]string{"old_password": oldPassword, "new_password": newPassword}); err != nil {
		return err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apierr.PasswordMismatch()
		}
		return err
	}

	if msgs := s.policy.Violations(newPassword, user.Email); len(msgs) > 0 {
		return apierr.FieldValidation("new_password", msgs...)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	events.Emit(ctx, s.events, s.logger, events.New(events.PasswordChanged, user.ID, user.Email))
	return nil
}

// ChangeEmail replaces the email of userID. oldEmail must equal the stored
// address exactly, and newEmail must differ from it before any format check.
func (s *MutationService) ChangeEmail(ctx context.Context, userID, oldEmail, newEmail string) error {
	if err := requireFields(map[string]string{"old_email": oldEmail, "new_email": newEmail}); err != nil {
		return err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if oldEmail != user.Email {
		return apierr.EmailMismatch()
	}
	if newEmail == user.Email {
		return apierr.EmailValidation()
	}
	if !credentials.ValidEmail(newEmail) {
		return apierr.FieldValidation("new_email", msgInvalidEmail)
	}
	normalized := credentials.NormalizeEmail(newEmail)
	if normalized == user.Email {
		return apierr.EmailValidation()
	}

	if err := s.repomanager.Users(s.db).UpdateEmail(ctx, user.ID, normalized); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return apierr.Conflict(msgDuplicateUser).WithCause(err)
		}
		return err
	}

	events.Emit(ctx, s.events, s.logger, events.New(events.EmailChanged, user.ID, normalized))
	return nil
}

func (s *MutationService) load(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apierr.NotFound("User not found.").WithCause(err)
		}
		return nil, err
	}
	return user, nil
}

func requireFields(fields map[string]string) error {
	problems := map[string][]string{}
	for name, v := range fields {
		if v == "" {
			problems[name] = []string{msgRequired}
		}
	}
	if len(problems) > 0 {
		return apierr.Validation(problems)
	}
	return nil
}
