// Package credentials validates the raw inputs that identify and
// authenticate an account: email addresses and passwords.
package credentials

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MaxEmailLength is the longest address accepted, per RFC 5321 path limits.
const MaxEmailLength = 254

// NormalizeEmail trims surrounding whitespace and lowercases the domain
// part. The local part is kept as typed.
func NormalizeEmail(raw string) string {
	email := strings.TrimSpace(raw)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// CheckEmail validates the syntax of raw without normalizing it. The
// returned error carries ozzo-validation's message.
func CheckEmail(raw string) error {
	return validation.Validate(strings.TrimSpace(raw),
		validation.Required,
		validation.Length(3, MaxEmailLength),
		is.Email,
	)
}

// ValidEmail reports whether raw is a syntactically valid address.
func ValidEmail(raw string) bool {
	return CheckEmail(raw) == nil
}
