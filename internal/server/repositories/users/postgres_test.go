package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "email", "password", "is_active", "is_staff", "is_superuser", "last_login", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password,\s*is_active,\s*is_staff,\s*is_superuser\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+created_at,\s*updated_at\s*$`

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(q).
		WithArgs("u-1", "alice@example.com", "hash", true, false, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	u := &models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: "hash", IsActive: true}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, ts, got.CreatedAt)
	assert.Equal(t, ts, got.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		checkFn func(t *testing.T, err error)
	}{
		{
			name:  "unique violation",
			dbErr: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, common.ErrorAlreadyExists)
			},
		},
		{
			name:  "other",
			dbErr: errors.New("db down"),
			checkFn: func(t *testing.T, err error) {
				assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(tt.dbErr)

			_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "a@b.co"})
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestGetByEmail_CaseInsensitiveQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+LOWER\(email\)\s*=\s*LOWER\(\$1\)$`
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	login := created.Add(time.Hour)
	mock.ExpectQuery(q).
		WithArgs("Alice@Example.com").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u-1", "alice@example.com", "hash", true, false, false, login, created, created))

	got, err := repo.GetByEmail(context.Background(), "Alice@Example.com")
	require.NoError(t, err)

	want := &models.User{
		ID: "u-1", Email: "alice@example.com", PasswordHash: "hash", IsActive: true,
		LastLogin: &login, CreatedAt: created, UpdatedAt: created,
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestGetByID(t *testing.T) {
	t.Run("found without last login", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		created := time.Now().UTC()
		mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
			WithArgs("u-2").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("u-2", "bob@example.com", "hash", true, true, true, nil, created, created))

		got, err := repo.GetByID(context.Background(), "u-2")
		require.NoError(t, err)
		assert.Nil(t, got.LastLogin)
		assert.True(t, got.IsSuperuser)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).WillReturnError(errors.New("db err"))

		_, err := repo.GetByID(context.Background(), "u")
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db err`, err.Error())
	})
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+ORDER\s+BY\s+created_at\s+DESC`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("u-2", "b@x.io", "h", true, false, false, nil, now, now).
			AddRow("u-1", "a@x.io", "h", false, false, false, nil, now.Add(-time.Hour), now))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-2", got[0].ID)
	assert.False(t, got[1].IsActive)
}

func TestList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+users`).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUpdatePassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+users\s+SET\s+password\s*=\s*\$2,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1", "new-hash").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "new-hash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmail(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$2,\s*updated_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("u-1", "new@x.io").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateEmail(context.Background(), "u-1", "new@x.io"))
	})

	t.Run("duplicate", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, repo.UpdateEmail(context.Background(), "u-1", "taken@x.io"), common.ErrorAlreadyExists)
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.UpdateEmail(context.Background(), "gone", "n@x.io"), common.ErrorNotFound)
	})
}

func TestUpdateLastLogin(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+last_login\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), "u-1", at))
}
