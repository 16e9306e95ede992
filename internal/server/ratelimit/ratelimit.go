// Package ratelimit throttles login and registration attempts per client.
package ratelimit

import (
	"context"
	"time"
)

// now is a seam for tests.
var now = time.Now

// Limiter decides whether another request for key is allowed. When it is
// not, retryAfter tells the client how long to wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Nop allows everything. It is used when throttling is switched off.
type Nop struct{}

func (Nop) Allow(context.Context, string) (bool, time.Duration, error) { return true, 0, nil }
