// Package auth mints and verifies the JWTs handed to clients and hashes
// account passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// now is a seam for tests.
var now = time.Now

// TokenSettings configures a TokenIssuer.
type TokenSettings struct {
	SigningKey      []byte
	Algorithm       string // HS256, HS384 or HS512
	Issuer          string
	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
	EmailClaim      string
	TokenTypeClaim  string
}

// TokenPair is the result of a successful login. Refresh is empty when only
// a new access token was minted.
type TokenPair struct {
	Access          string
	AccessLifetime  time.Duration
	Refresh         string
	RefreshLifetime time.Duration
}

// Claims is the decoded, verified content of a token.
type Claims struct {
	Subject   string
	Email     string
	TokenType string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs access/refresh tokens with an HMAC key.
type TokenIssuer struct {
	settings TokenSettings
	method   jwt.SigningMethod
}

// NewTokenIssuer validates settings and returns an issuer.
func NewTokenIssuer(s TokenSettings) (*TokenIssuer, error) {
	method := jwt.GetSigningMethod(s.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", s.Algorithm)
	}
	if len(s.SigningKey) == 0 {
		return nil, errors.New("empty signing key")
	}
	if s.EmailClaim == "" || s.TokenTypeClaim == "" {
		return nil, errors.New("claim names must not be empty")
	}
	return &TokenIssuer{settings: s, method: method}, nil
}

// AccessLifetime returns the configured access token lifetime.
func (i *TokenIssuer) AccessLifetime() time.Duration { return i.settings.AccessLifetime }

// RefreshLifetime returns the configured refresh token lifetime.
func (i *TokenIssuer) RefreshLifetime() time.Duration { return i.settings.RefreshLifetime }

// IssuePair mints an access token carrying the email claim and a refresh
// token carrying only the subject.
func (i *TokenIssuer) IssuePair(userID, email string) (*TokenPair, error) {
	access, err := i.IssueAccess(userID, email)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, common.TokenTypeRefresh, i.settings.RefreshLifetime, nil)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:          access,
		AccessLifetime:  i.settings.AccessLifetime,
		Refresh:         refresh,
		RefreshLifetime: i.settings.RefreshLifetime,
	}, nil
}

// IssueAccess mints a single access token.
func (i *TokenIssuer) IssueAccess(userID, email string) (string, error) {
	return i.sign(userID, common.TokenTypeAccess, i.settings.AccessLifetime, map[string]any{
		i.settings.EmailClaim: email,
	})
}

func (i *TokenIssuer) sign(userID, tokenType string, lifetime time.Duration, extra map[string]any) (string, error) {
	issuedAt := now()
	claims := jwt.MapClaims{
		"sub":                     userID,
		"iat":                     jwt.NewNumericDate(issuedAt),
		"exp":                     jwt.NewNumericDate(issuedAt.Add(lifetime)),
		"jti":                     uuid.NewString(),
		i.settings.TokenTypeClaim: tokenType,
	}
	if i.settings.Issuer != "" {
		claims["iss"] = i.settings.Issuer
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(i.method, claims)
	signed, err := token.SignedString(i.settings.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseAccess verifies an access token.
func (i *TokenIssuer) ParseAccess(raw string) (*Claims, error) {
	return i.parse(raw, common.TokenTypeAccess)
}

// ParseRefresh verifies a refresh token.
func (i *TokenIssuer) ParseRefresh(raw string) (*Claims, error) {
	return i.parse(raw, common.TokenTypeRefresh)
}

// parse returns common.ErrTokenExpired for expired tokens and
// common.ErrInvalidToken for anything else that does not verify, including
// a token of the wrong type.
func (i *TokenIssuer) parse(raw, wantType string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithTimeFunc(now),
		jwt.WithExpirationRequired(),
	}
	if i.settings.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.settings.Issuer))
	}

	mc := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, mc, func(t *jwt.Token) (any, error) {
		return i.settings.SigningKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	c := &Claims{}
	c.Subject, _ = mc.GetSubject()
	c.TokenType, _ = mc[i.settings.TokenTypeClaim].(string)
	c.Email, _ = mc[i.settings.EmailClaim].(string)
	c.ID, _ = mc["jti"].(string)
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	if c.TokenType != wantType || c.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return c, nil
}
