package auth

import (
	"errors"

	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var (
	// ErrWrongPassword indicates the current password did not match.
	ErrWrongPassword = errors.New("auth: current password is incorrect")
	// ErrWeakPassword rejects passwords shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("auth: password too short")
	// ErrPasswordConfirmation indicates the confirmation did not match.
	ErrPasswordConfirmation = errors.New("auth: password confirmation does not match")
)

// SessionUser converts an account into the snapshot kept in the session.
func SessionUser(u store.User) *shared.AuthUser {
	return &shared.AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}
