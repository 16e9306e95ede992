package models

import "time"

// Profile holds personal data of a user. Exactly one exists per user; it is
// created together with the user and removed by cascade.
type Profile struct {
	UserID      string    `db:"user_id" json:"user_id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	PhoneNumber *string   `db:"phone_number" json:"phone_number"`
	Avatar      *string   `db:"avatar" json:"avatar"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
