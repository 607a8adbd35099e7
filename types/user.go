package types

import "time"

// User represents a registered account in the marketplace.
// It contains identity, profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Contact is the user's phone or other contact detail.
	Contact string `json:"contact" db:"contact"`

	// Place is the user's location as free-form text.
	Place string `json:"place" db:"place"`

	// Avatar is the generated filename of the user's avatar image in
	// object storage. Empty when no avatar has been uploaded.
	Avatar string `json:"avatar,omitempty" db:"avatar"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
