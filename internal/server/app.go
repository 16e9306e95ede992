// Package server wires the accounts server together: configuration,
// database and migrations, services, and the HTTP and gRPC listeners, and
// runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/credentials"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/health"
	"github.com/dmitrijs2005/gophaccounts/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccounts/internal/server/rest"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"

	gs "github.com/dmitrijs2005/gophaccounts/internal/server/grpc"
)

const throttlePrefix = "gophaccounts:throttle"

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	http    *rest.Server
	grpc    *gs.GRPCServer
	closers []func()
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewServerLogger(c.Debug)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: c, logger: logger, db: db}
	app.closers = append(app.closers, func() { _ = db.Close() })

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenSettings{
		SigningKey:      []byte(c.SecretKey),
		Algorithm:       c.SigningAlgorithm,
		Issuer:          c.TokenIssuer,
		AccessLifetime:  c.AccessTokenLifetime,
		RefreshLifetime: c.RefreshTokenLifetime,
		EmailClaim:      c.EmailClaim,
		TokenTypeClaim:  c.TokenTypeClaim,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	pub, err := app.buildPublisher(db, rm)
	if err != nil {
		app.close()
		return nil, err
	}

	limiter, err := app.buildLimiter(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	hasher := auth.NewBcryptHasher(c.BcryptCost)
	policy := credentials.NewPasswordPolicy(c.PasswordMinLength)
	checker := health.NewChecker().AddDatabase(db)

	app.http = rest.NewServer(c, logger, rest.Services{
		Users:     services.NewUserService(db, rm, hasher, policy, pub, logger),
		Tokens:    services.NewTokenService(db, rm, hasher, issuer, pub, logger),
		Mutations: services.NewMutationService(db, rm, hasher, policy, pub, logger),
		Profiles:  services.NewProfileService(db, rm, services.NewS3AvatarStore(c), c.MediaRoot, c.PhoneDefaultRegion),
		Health:    checker,
		Limiter:   limiter,
	})

	if c.GRPCAddr != "" {
		app.grpc = gs.NewGRPCServer(c.GRPCAddr, logger, checker)
	}

	return app, nil
}

// buildPublisher always records last logins; events also go to NATS when
// configured, otherwise to the log.
func (app *App) buildPublisher(db *sql.DB, rm repomanager.RepositoryManager) (events.Publisher, error) {
	fan := events.Fanout{events.NewLastLoginRecorder(db, rm)}

	if app.config.NATSURL == "" {
		return append(fan, events.NewLogPublisher(app.logger)), nil
	}

	nc, err := events.ConnectNATS(app.config.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	app.closers = append(app.closers, func() { _ = nc.Drain() })
	return append(fan, events.NewNATSPublisher(nc, app.config.EventsSubjectPrefix)), nil
}

func (app *App) buildLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	c := app.config
	switch {
	case c.RateLimitRequests == 0 || c.RateLimitWindow <= 0:
		return ratelimit.Nop{}, nil
	case c.RedisURL != "":
		client, err := ratelimit.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		return ratelimit.NewRedisLimiter(client, throttlePrefix, c.RateLimitRequests, c.RateLimitWindow), nil
	default:
		return ratelimit.NewMemoryLimiter(c.RateLimitRequests, c.RateLimitWindow), nil
	}
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// start runs fn and cancels everything when it fails.
func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.http.Run)
	}()

	if app.grpc != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.start(ctx, cancelFunc, "grpc", app.grpc.Run)
		}()
	}

	wg.Wait()
	app.close()

	app.logger.Info(ctx, "App stopped")
}
