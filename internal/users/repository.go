package users

import (
	"context"
	"strings"

	"github.com/elmeel/warehouse/internal/store"
)

// Repository persists accounts in the entity store.
type Repository struct {
	store *store.Store
}

// NewRepository creates a new repository instance.
func NewRepository(st *store.Store) *Repository {
	return &Repository{store: st}
}

// ListUsers returns every account.
func (r *Repository) ListUsers(ctx context.Context) ([]store.User, error) {
	var out []store.User
	err := r.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		out = tx.Users()
		return nil
	})
	return out, err
}

// GetUser fetches one account.
func (r *Repository) GetUser(ctx context.Context, id string) (store.User, error) {
	var out store.User
	err := r.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		out, err = tx.User(id)
		return err
	})
	return out, err
}

// SaveUser inserts or replaces u. The email uniqueness check runs in the
// same transaction as the write.
func (r *Repository) SaveUser(ctx context.Context, u store.User) error {
	return r.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, other := range tx.Users() {
			if other.ID != u.ID && strings.EqualFold(other.Email, u.Email) {
				return ErrDuplicateEmail
			}
		}
		if existing, err := tx.User(u.ID); err == nil {
			if existing.Role == store.RoleAdmin && u.Role != store.RoleAdmin && countAdmins(tx) == 1 {
				return ErrLastAdmin
			}
		}
		return tx.PutUser(u)
	})
}

// DeleteUser removes the account unless it is the last one or the last admin.
func (r *Repository) DeleteUser(ctx context.Context, id string) (store.User, error) {
	var removed store.User
	err := r.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		u, err := tx.User(id)
		if err != nil {
			return err
		}
		if len(tx.Users()) == 1 {
			return ErrLastUser
		}
		if u.Role == store.RoleAdmin && countAdmins(tx) == 1 {
			return ErrLastAdmin
		}
		removed = u
		return tx.DeleteUser(id)
	})
	return removed, err
}

func countAdmins(tx *store.Tx) int {
	n := 0
	for _, u := range tx.Users() {
		if u.Role == store.RoleAdmin {
			n++
		}
	}
	return n
}
