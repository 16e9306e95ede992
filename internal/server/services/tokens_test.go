package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophaccounts/internal/server/apierr"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T, us ...*models.User) (*TokenService, *captureEvents) {
	t.Helper()
	pub := &captureEvents{}
	s := NewTokenService(nil, &fakeRepoManager{u: newFakeUsers(us...)}, testHasher(), testIssuer(t), pub, nopLogger{})
	return s, pub
}

func TestLogin_Success(t *testing.T) {
	u := &models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: mustHash(t, "right-password"), IsActive: true}
	s, pub := newTokenService(t, u)

	pair, err := s.Login(context.Background(), "alice@EXAMPLE.com", "right-password")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := s.Issuer().ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)

	assert.Equal(t, []string{events.UserLoggedIn}, pub.types())
}

func TestLogin_Failures(t *testing.T) {
	active := &models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: mustHash(t, "right-password"), IsActive: true}
	inactive := &models.User{ID: "u-2", Email: "off@example.com", PasswordHash: mustHash(t, "right-password")}

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"unknown email", "nobody@example.com", "right-password", apierr.CodeUnauthorized},
		{"wrong password", "alice@example.com", "wrong-password", apierr.CodeUnauthorized},
		{"inactive user", "off@example.com", "right-password", apierr.CodeUnauthorized},
		{"missing password", "alice@example.com", "", apierr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, pub := newTokenService(t, active, inactive)

			_, err := s.Login(context.Background(), tt.email, tt.password)
			var apiErr *apierr.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantCode == apierr.CodeUnauthorized {
				assert.Equal(t, "No active account found with the given credentials.", apiErr.Detail)
			}
			assert.Empty(t, pub.types())
		})
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	s, _ := newTokenService(t)
	s.repomanager.(*fakeRepoManager).u.getErr = errors.New("db down")

	_, err := s.Login(context.Background(), "a@example.com", "pw")
	assert.EqualError(t, err, "db down")
}

func TestRefresh(t *testing.T) {
	u := &models.User{ID: "u-1", Email: "alice@example.com", IsActive: true}
	s, _ := newTokenService(t, u)

	pair, err := s.Issuer().IssuePair(u.ID, u.Email)
	require.NoError(t, err)

	got, err := s.Refresh(context.Background(), pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Access)
	assert.Empty(t, got.Refresh)
	assert.Equal(t, s.Issuer().AccessLifetime(), got.AccessLifetime)

	// an access token is not a refresh token
	_, err = s.Refresh(context.Background(), pair.Access)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeUnauthorized, apiErr.Code)

	_, err = s.Refresh(context.Background(), "")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeValidation, apiErr.Code)
}

func TestRefresh_UserGoneOrInactive(t *testing.T) {
	u := &models.User{ID: "u-1", Email: "alice@example.com"}
	s, _ := newTokenService(t, u)

	pair, err := s.Issuer().IssuePair(u.ID, u.Email)
	require.NoError(t, err)
	_, err = s.Refresh(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, apierr.Unauthorized(""))

	pair, err = s.Issuer().IssuePair("ghost", "ghost@example.com")
	require.NoError(t, err)
	_, err = s.Refresh(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, apierr.Unauthorized(""))
}

func TestAuthenticate(t *testing.T) {
	u := &models.User{ID: "u-1", Email: "alice@example.com", IsActive: true}
	s, _ := newTokenService(t, u)

	pair, err := s.Issuer().IssuePair(u.ID, u.Email)
	require.NoError(t, err)

	got, err := s.Authenticate(context.Background(), pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	_, err = s.Authenticate(context.Background(), pair.Refresh)
	assert.ErrorIs(t, err, apierr.Unauthorized(""))

	_, err = s.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, apierr.Unauthorized(""))
}
