// ABOUTME: User model for accounts that sign in to the web API.
// ABOUTME: Emails are stored lower-cased and trimmed.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account holder. PasswordHash never leaves the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates a user with a normalized email.
func NewUser(email, displayName, passwordHash string) *User {
	return &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
