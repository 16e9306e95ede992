package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/manage"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/credentials"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
)

func main() {
	name, args := manage.SplitCommand(os.Args[1:])
	if name == "" {
		manage.Usage(os.Stderr)
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db init error:", err)
		os.Exit(1)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	policy := credentials.NewPasswordPolicy(cfg.PasswordMinLength)

	cmds := &manage.Commands{
		Users:   services.NewUserService(db, rm, auth.NewBcryptHasher(cfg.BcryptCost), policy, events.NewLogPublisher(logger), logger),
		Policy:  policy,
		Migrate: func(ctx context.Context) error { return rm.RunMigrations(ctx, db) },
		Logger:  logger,
		In:      bufio.NewReader(os.Stdin),
		Out:     os.Stdout,
		Fd:      int(os.Stdin.Fd()),
	}

	if err := cmds.Run(ctx, name, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		db.Close()
		os.Exit(1)
	}
}
