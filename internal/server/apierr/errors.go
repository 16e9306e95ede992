// Package apierr is the error taxonomy of the HTTP API. Every failure a
// client can observe is an *Error with a machine readable code, a detail
// payload and the HTTP status it is served with.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
)

// Codes sent in the "code" field of error responses.
const (
	CodeValidation       = "validation_error"
	CodeRequiredField    = "required_field"
	CodeInvalidEmail     = "invalid_email"
	CodePasswordMismatch = "password_mismatch"
	CodeEmailMismatch    = "email_mismatch"
	CodeEmailValidation  = "email_validation_error"
	CodeNotFound         = "not_found"
	CodePermissionDenied = "permission_denied"
	CodeUnauthorized     = "unauthorized"
	CodeConflict         = "resource_conflict"
	CodeServer           = "server_error"
	CodeThrottled        = "throttled"
	CodeParse            = "parse_error"
	CodeUnavailable      = "service_unavailable"
)

// Error is a client-facing failure.
type Error struct {
	Code   string
	Detail any
	Status int

	// RetryAfter is set on throttled responses.
	RetryAfter time.Duration

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v (cause: %v)", e.Code, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches errors with the same code, so callers can write
// errors.Is(err, apierr.PasswordMismatch()).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Body is the JSON representation written to clients.
type Body struct {
	Code   string `json:"code"`
	Detail any    `json:"detail"`
}

// Body returns the serializable part of the error.
func (e *Error) Body() Body {
	return Body{Code: e.Code, Detail: e.Detail}
}

// WithCause attaches the underlying error. It is logged, never serialized.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func newError(status int, code string, detail any) *Error {
	return &Error{Code: code, Detail: detail, Status: status}
}

// Validation reports invalid input. detail is usually a map of field name to
// messages; a nil detail becomes "Invalid input.".
func Validation(detail any) *Error {
	if detail == nil {
		detail = "Invalid input."
	}
	return newError(http.StatusBadRequest, CodeValidation, detail)
}

// FieldValidation reports one or more messages for a single field.
func FieldValidation(field string, messages ...string) *Error {
	return Validation(map[string][]string{field: messages})
}

// RequiredField reports a missing mandatory field, e.g. {"email": "The field Email is required."}.
func RequiredField(field, label string) *Error {
	return newError(http.StatusBadRequest, CodeRequiredField,
		map[string]string{field: fmt.Sprintf("The field %s is required.", label)})
}

func InvalidEmail() *Error {
	return newError(http.StatusBadRequest, CodeInvalidEmail, "The email address is invalid.")
}

func PasswordMismatch() *Error {
	return newError(http.StatusBadRequest, CodePasswordMismatch, "The passwords do not match.")
}

func EmailMismatch() *Error {
	return newError(http.StatusBadRequest, CodeEmailMismatch, "Current email does not match.")
}

// EmailValidation rejects an email change that would not change anything.
func EmailValidation() *Error {
	return newError(http.StatusBadRequest, CodeEmailValidation, "New email must be different from the current email.")
}

func NotFound(detail string) *Error {
	return newError(http.StatusNotFound, CodeNotFound, orDefault(detail, "Resource not found."))
}

func PermissionDenied() *Error {
	return newError(http.StatusForbidden, CodePermissionDenied, "You do not have permission to perform this action.")
}

func Unauthorized(detail string) *Error {
	return newError(http.StatusUnauthorized, CodeUnauthorized,
		orDefault(detail, "Authentication credentials were not provided or are invalid."))
}

func Conflict(detail string) *Error {
	return newError(http.StatusConflict, CodeConflict, orDefault(detail, "Resource conflict."))
}

// Server hides cause behind an opaque 500.
func Server(cause error) *Error {
	return newError(http.StatusInternalServerError, CodeServer, "Internal server error.").WithCause(cause)
}

func Throttled(retryAfter time.Duration) *Error {
	e := newError(http.StatusTooManyRequests, CodeThrottled, "Request was throttled.")
	e.RetryAfter = retryAfter
	return e
}

// Unavailable reports a collaborator that cannot serve the request now.
func Unavailable(detail string) *Error {
	return newError(http.StatusServiceUnavailable, CodeUnavailable,
		orDefault(detail, "Service temporarily unavailable, try again later."))
}

// Parse reports a request body that could not be decoded.
func Parse(cause error) *Error {
	return newError(http.StatusBadRequest, CodeParse, "Malformed request body.").WithCause(cause)
}

// From converts any error into an *Error. Known sentinels keep their
// meaning; everything else becomes a ServerError.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return NotFound("").WithCause(err)
	case errors.Is(err, common.ErrorAlreadyExists):
		return Conflict("").WithCause(err)
	case errors.Is(err, common.ErrTokenExpired):
		return Unauthorized("Token is expired.").WithCause(err)
	case errors.Is(err, common.ErrInvalidToken):
		return Unauthorized("Token is invalid.").WithCause(err)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrorInactiveUser):
		return Unauthorized("").WithCause(err)
	default:
		return Server(err)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
