package server

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func newTestApp(mutate func(*config.Config)) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if mutate != nil {
		mutate(cfg)
	}
	return &App{config: cfg, logger: nopLogger{}}
}

func TestBuildLimiter(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
		check  func(t *testing.T, l ratelimit.Limiter)
	}{
		{
			name:   "disabled",
			mutate: func(c *config.Config) { c.RateLimitRequests = 0 },
			check:  func(t *testing.T, l ratelimit.Limiter) { assert.IsType(t, ratelimit.Nop{}, l) },
		},
		{
			name:  "in memory by default",
			check: func(t *testing.T, l ratelimit.Limiter) { assert.IsType(t, &ratelimit.MemoryLimiter{}, l) },
		},
		{
			name:   "redis when configured",
			mutate: func(c *config.Config) { c.RedisURL = "redis://" + mr.Addr() },
			check:  func(t *testing.T, l ratelimit.Limiter) { assert.IsType(t, &ratelimit.RedisLimiter{}, l) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.mutate)
			defer app.close()

			l, err := app.buildLimiter(context.Background())
			require.NoError(t, err)
			tt.check(t, l)
		})
	}
}

func TestBuildLimiter_RedisUnreachable(t *testing.T) {
	app := newTestApp(func(c *config.Config) { c.RedisURL = "redis://127.0.0.1:1" })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := app.buildLimiter(ctx)
	assert.Error(t, err)
	assert.Empty(t, app.closers)
}

func TestBuildPublisher_WithoutNATS(t *testing.T) {
	app := newTestApp(nil)

	pub, err := app.buildPublisher(nil, repomanager.NewPostgresRepositoryManager())
	require.NoError(t, err)

	fan, ok := pub.(events.Fanout)
	require.True(t, ok)
	require.Len(t, fan, 2)
	assert.IsType(t, &events.LastLoginRecorder{}, fan[0])
	assert.IsType(t, &events.LogPublisher{}, fan[1])
}

func TestBuildPublisher_NATSUnreachable(t *testing.T) {
	app := newTestApp(func(c *config.Config) { c.NATSURL = "nats://127.0.0.1:1" })

	_, err := app.buildPublisher(nil, repomanager.NewPostgresRepositoryManager())
	assert.Error(t, err)
}

func TestClose_RunsInReverseOrder(t *testing.T) {
	var order []int
	app := &App{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}

	app.close()
	app.close()

	assert.Equal(t, []int{2, 1}, order)
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = ""

	_, err := NewApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is empty")
}
