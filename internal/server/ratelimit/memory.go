package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepEvery is how many calls pass between evictions of idle keys.
const sweepEvery = 1024

// MemoryLimiter keeps a token bucket per key in process memory. limit
// requests are allowed per window, refilled evenly.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	window  time.Duration
	calls   int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	interval := window / time.Duration(limit)
	if interval <= 0 {
		// rate.Every(0) is an unlimited rate
		interval = time.Nanosecond
	}
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(interval),
		burst:   limit,
		window:  window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	t := now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(t)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = t

	r := b.limiter.ReserveN(t, 1)
	if !r.OK() {
		return false, l.window, nil
	}
	if delay := r.DelayFrom(t); delay > 0 {
		r.CancelAt(t)
		return false, delay, nil
	}
	return true, 0, nil
}

// sweep drops buckets idle for a whole window; they would be full again.
func (l *MemoryLimiter) sweep(t time.Time) {
	for k, b := range l.buckets {
		if t.Sub(b.lastSeen) > l.window {
			delete(l.buckets, k)
		}
	}
}
