package common

// AuthorizationHeaderName carries "Bearer <access token>" on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "

// Token types stored in the token type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)
