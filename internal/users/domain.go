package users

import (
	"errors"

	"github.com/elmeel/warehouse/internal/store"
)

var (
	// ErrDuplicateEmail indicates another account already uses the email.
	ErrDuplicateEmail = errors.New("users: email already registered")
	// ErrInvalidRole rejects roles outside the permission table.
	ErrInvalidRole = errors.New("users: invalid role")
	// ErrPasswordRequired is returned when creating an account without a password.
	ErrPasswordRequired = errors.New("users: password required")
	// ErrLastUser guards against deleting the only account.
	ErrLastUser = errors.New("users: cannot delete the last user")
	// ErrLastAdmin guards against leaving the system without an administrator.
	ErrLastAdmin = errors.New("users: at least one admin must remain")
)

// UserInput carries create/update attributes. An empty Password on update
// keeps the current one.
type UserInput struct {
	Name     string
	Email    string
	Role     store.Role
	Password string
}
