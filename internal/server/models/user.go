// Package models holds the persisted entities of the accounts server.
package models

import "time"

// User is an account. Email is stored normalized and is unique ignoring
// case. PasswordHash is a bcrypt hash and never leaves the process.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	IsStaff      bool       `db:"is_staff" json:"is_staff"`
	IsSuperuser  bool       `db:"is_superuser" json:"is_superuser"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFields are the optional flags accepted when creating a user.
// Nil pointers fall back to the column defaults.
type UserFields struct {
	IsActive    *bool
	IsStaff     *bool
	IsSuperuser *bool
}
