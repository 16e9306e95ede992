// Package manage implements the administrative commands of the accounts
// server: creating superusers and applying database migrations.
package manage

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/apierr"
	"github.com/dmitrijs2005/gophaccounts/internal/server/credentials"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

// PasswordEnv supplies the password for createsuperuser -noinput.
const PasswordEnv = "SUPERUSER_PASSWORD"

const maxPasswordAttempts = 3

const (
	cmdCreateSuperuser = "createsuperuser"
	cmdMigrate         = "migrate"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrPasswordMismatch = errors.New("passwords didn't match")
	ErrTooManyAttempts  = errors.New("too many attempts")
)

type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, email, password string) (*models.User, error)
}

// Commands holds what the commands need. Fd is the terminal passwords are
// read from.
type Commands struct {
	Users   SuperuserCreator
	Policy  *credentials.PasswordPolicy
	Migrate func(ctx context.Context) error
	Logger  logging.Logger

	In  *bufio.Reader
	Out io.Writer
	Fd  int
}

// SplitCommand returns the first known command in args and the arguments
// after it. Everything before it belongs to the configuration layers.
func SplitCommand(args []string) (string, []string) {
	for i, a := range args {
		if a == cmdCreateSuperuser || a == cmdMigrate {
			return a, args[i+1:]
		}
	}
	return "", nil
}

func Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: manage [config flags] <command> [flags]")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  createsuperuser [-email address] [-noinput]")
	fmt.Fprintln(w, "  migrate")
}

func (c *Commands) Run(ctx context.Context, name string, args []string) error {
	switch name {
	case cmdCreateSuperuser:
		return c.CreateSuperuser(ctx, args)
	case cmdMigrate:
		if err := c.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		c.Logger.Info(ctx, "migrations applied")
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, name)
	}
}

// CreateSuperuser asks for the missing email and password and creates an
// active staff account with every permission. With -noinput the password
// comes from $SUPERUSER_PASSWORD and nothing is prompted.
func (c *Commands) CreateSuperuser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(cmdCreateSuperuser, flag.ContinueOnError)
	fs.SetOutput(c.Out)
	email := fs.String("email", "", "email address of the superuser")
	noInput := fs.Bool("noinput", false, "do not prompt; read the password from $"+PasswordEnv)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *noInput {
			return errors.New("-email is required with -noinput")
		}
		if *email, err = getSimpleText(c.In, "Email", c.Out); err != nil {
			return err
		}
	}

	var password string
	if *noInput {
		password = os.Getenv(PasswordEnv)
		if password == "" {
			return fmt.Errorf("$%s is required with -noinput", PasswordEnv)
		}
		if msgs := c.Policy.Violations(password, *email); len(msgs) > 0 {
			return fmt.Errorf("password rejected: %s", strings.Join(msgs, " "))
		}
	} else if password, err = c.promptPassword(*email); err != nil {
		return err
	}

	user, err := c.Users.CreateSuperuser(ctx, *email, password)
	if err != nil {
		var apiErr *apierr.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%s: %v", apiErr.Code, apiErr.Detail)
		}
		return err
	}

	c.Logger.Info(ctx, "superuser created", "id", user.ID, "email", user.Email)
	fmt.Fprintln(c.Out, "Superuser created successfully.")
	return nil
}

func (c *Commands) promptPassword(email string) (string, error) {
	for i := 0; i < maxPasswordAttempts; i++ {
		pw, err := getPassword(c.Fd, "Password", c.Out)
		if err != nil {
			return "", err
		}
		again, err := getPassword(c.Fd, "Password (again)", c.Out)
		if err != nil {
			return "", err
		}

		if pw != again {
			fmt.Fprintln(c.Out, "Error: Your passwords didn't match.")
			continue
		}
		if msgs := c.Policy.Violations(pw, email); len(msgs) > 0 {
			for _, m := range msgs {
				fmt.Fprintln(c.Out, "Error:", m)
			}
			continue
		}
		return pw, nil
	}
	return "", ErrTooManyAttempts
}
