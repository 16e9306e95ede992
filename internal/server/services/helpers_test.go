package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// captureEvents records published events.
type captureEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureEvents) Publish(_ context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureEvents) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeUsers is an in-memory users.Repository.
type fakeUsers struct {
	byID map[string]*models.User

	getErr    error
	updateErr error
	writes    []string
}

func newFakeUsers(us ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*models.User{}}
	for _, u := range us {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.byID[u.ID] = u
	f.writes = append(f.writes, "create")
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) List(context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.writes = append(f.writes, "password")
	f.byID[id].PasswordHash = hash
	return nil
}

func (f *fakeUsers) UpdateEmail(_ context.Context, id, email string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.writes = append(f.writes, "email")
	f.byID[id].Email = email
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	f.writes = append(f.writes, "last_login")
	f.byID[id].LastLogin = &at
	return nil
}

// fakeProfiles is an in-memory profiles.Repository.
type fakeProfiles struct {
	byUser map[string]*models.Profile
}

func newFakeProfiles(ps ...*models.Profile) *fakeProfiles {
	f := &fakeProfiles{byUser: map[string]*models.Profile{}}
	for _, p := range ps {
		f.byUser[p.UserID] = p
	}
	return f
}

func (f *fakeProfiles) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	f.byUser[p.UserID] = p
	return p, nil
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	p, ok := f.byUser[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Update(_ context.Context, p *models.Profile) (*models.Profile, error) {
	if _, ok := f.byUser[p.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	f.byUser[p.UserID] = &cp
	return p, nil
}

func (f *fakeProfiles) UpdateAvatar(_ context.Context, userID, avatar string) error {
	p, ok := f.byUser[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.Avatar = &avatar
	return nil
}

type fakeRepoManager struct {
	u *fakeUsers
	p *fakeProfiles
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return m.u }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository      { return m.p }

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testHasher() *auth.BcryptHasher { return auth.NewBcryptHasher(bcrypt.MinCost) }

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func testIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	i, err := auth.NewTokenIssuer(auth.TokenSettings{
		SigningKey:      []byte("test-key"),
		Algorithm:       "HS256",
		AccessLifetime:  5 * time.Minute,
		RefreshLifetime: time.Hour,
		EmailClaim:      "email",
		TokenTypeClaim:  "token_type",
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return i
}
