package credentials

import (
	"bufio"
	_ "embed"
	"fmt"
	"strings"
	"unicode"
)

//go:embed common_passwords.txt
var commonPasswordsList string

// Policy violation messages.
const (
	msgTooShort   = "This password is too short. It must contain at least %d characters."
	msgTooLong    = "This password is too long. It must contain at most %d bytes."
	msgTooCommon  = "This password is too common."
	msgNumeric    = "This password is entirely numeric."
	msgTooSimilar = "The password is too similar to the email."
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// MsgTooLong is reported for passwords over MaxPasswordBytes.
var MsgTooLong = fmt.Sprintf(msgTooLong, MaxPasswordBytes)

// minSimilarPart is the shortest email fragment that counts as "contained"
// in a password.
const minSimilarPart = 3

// PasswordPolicy checks password strength. The zero value applies no
// length rule; use NewPasswordPolicy for the standard rules.
type PasswordPolicy struct {
	MinLength int
	common    map[string]struct{}
}

// NewPasswordPolicy returns a policy with the given minimum length and the
// embedded list of common passwords.
func NewPasswordPolicy(minLength int) *PasswordPolicy {
	return &PasswordPolicy{MinLength: minLength, common: loadCommon(commonPasswordsList)}
}

func loadCommon(list string) map[string]struct{} {
	m := make(map[string]struct{})
	sc := bufio.NewScanner(strings.NewReader(list))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m[strings.ToLower(line)] = struct{}{}
	}
	return m
}

// Violations returns every rule password breaks, in a stable order.
// When email is not empty the password is also compared against it.
func (p *PasswordPolicy) Violations(password, email string) []string {
	var msgs []string

	if email != "" && similarToEmail(password, email) {
		msgs = append(msgs, msgTooSimilar)
	}
	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		msgs = append(msgs, fmt.Sprintf(msgTooShort, p.MinLength))
	}
	if len(password) > MaxPasswordBytes {
		msgs = append(msgs, MsgTooLong)
	}
	if _, ok := p.common[strings.ToLower(strings.TrimSpace(password))]; ok {
		msgs = append(msgs, msgTooCommon)
	}
	if password != "" && isNumeric(password) {
		msgs = append(msgs, msgNumeric)
	}

	return msgs
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similarToEmail reports whether password contains the address, its local
// part, or a domain label of at least minSimilarPart characters.
func similarToEmail(password, email string) bool {
	pw := strings.ToLower(password)
	email = strings.ToLower(strings.TrimSpace(email))

	parts := []string{email}
	if at := strings.LastIndex(email, "@"); at >= 0 {
		parts = append(parts, email[:at])
		parts = append(parts, strings.FieldsFunc(email[:at], isSeparator)...)
		labels := strings.Split(email[at+1:], ".")
		// the top-level domain says nothing about the owner
		parts = append(parts, labels[:len(labels)-1]...)
	}

	for _, part := range parts {
		if len(part) >= minSimilarPart && strings.Contains(pw, part) {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == '.' || r == '_' || r == '-' || r == '+'
}
