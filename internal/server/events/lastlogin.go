package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
)

// LastLoginRecorder stores the login time of UserLoggedIn events on the user.
type LastLoginRecorder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewLastLoginRecorder(db *sql.DB, m repomanager.RepositoryManager) *LastLoginRecorder {
	return &LastLoginRecorder{db: db, repomanager: m}
}

func (r *LastLoginRecorder) Publish(ctx context.Context, e Event) error {
	if e.Type != UserLoggedIn {
		return nil
	}
	if err := r.repomanager.Users(r.db).UpdateLastLogin(ctx, e.UserID, e.OccurredAt); err != nil {
		return fmt.Errorf("record last login: %w", err)
	}
	return nil
}
