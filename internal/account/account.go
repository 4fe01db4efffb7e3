// Package account manages user accounts: registration, login, and identity
// resolution for denormalized read payloads.
package account

import (
	"time"

	"github.com/teamforge/collabd/internal/auth"
)

// Account is a stored user record. PasswordHash never leaves the package.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         auth.Role `json:"role"`
	PasswordHash []byte    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRef is the denormalized identity embedded in project and message
// payloads, mirroring what clients need to render a user.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Ref returns the denormalized reference for the account.
func (a Account) Ref() UserRef {
	return UserRef{ID: a.ID, Name: a.Name, Email: a.Email}
}
