package events

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
)

// LogPublisher writes events to the log. It is the sink used when no
// broker is configured.
type LogPublisher struct {
	logger logging.Logger
}

func NewLogPublisher(l logging.Logger) *LogPublisher {
	return &LogPublisher{logger: l.With("module", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.Info(ctx, "account event", "type", e.Type, "user_id", e.UserID)
	return nil
}
