// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts come from two places: the email/password register form, or
// Google sign-in. A Google-only account has GoogleID set and an empty
// PasswordHash; a password account has the reverse. One account can end
// up with both when a password user later signs in with Google using the
// same email address — the Google identity is linked onto the existing row.
//
// WHY GoogleID string (not *string)?
// Google's "sub" claim is an opaque string. We use the empty string as
// the zero value rather than a nullable pointer — simpler to work with,
// and the repository enforces uniqueness only for non-empty values.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialized to clients
	GoogleID     string    `json:"-"`
	AvatarURL    string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword reports whether this account can sign in with a password.
// Google-only accounts cannot — login tells them to use Google instead.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
