// Package events delivers account events (logins, registrations, credential
// changes) to interested collaborators. Delivery is best effort: a failing
// sink never fails the request that produced the event.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
)

// Event types.
const (
	UserLoggedIn    = "user.logged_in"
	UserRegistered  = "user.registered"
	PasswordChanged = "user.password_changed"
	EmailChanged    = "user.email_changed"
)

// Event describes something that happened to an account.
type Event struct {
	Type       string            `json:"type"`
	UserID     string            `json:"user_id"`
	Email      string            `json:"email,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// New returns an event stamped with the current time.
func New(eventType, userID, email string) Event {
	return Event{Type: eventType, UserID: userID, Email: email, OccurredAt: time.Now().UTC()}
}

// Publisher accepts events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes e and logs, rather than returns, any failure.
func Emit(ctx context.Context, p Publisher, logger logging.Logger, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn(ctx, "event delivery failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}
