package auth

import (
	"context"
	"strings"

	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (store.User, error)
	FindByID(ctx context.Context, id string) (store.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// StoreRepository implements Repository on the entity store.
type StoreRepository struct {
	store *store.Store
}

// NewRepository constructs a store backed repository.
func NewRepository(st *store.Store) *StoreRepository {
	return &StoreRepository{store: st}
}

// FindByEmail fetches a user by email, ignoring case.
func (r *StoreRepository) FindByEmail(ctx context.Context, email string) (store.User, error) {
	var found store.User
	err := r.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, u := range tx.Users() {
			if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
				found = u
				return nil
			}
		}
		return shared.ErrNotFound
	})
	return found, err
}

// FindByID fetches a user by id.
func (r *StoreRepository) FindByID(ctx context.Context, id string) (store.User, error) {
	var found store.User
	err := r.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		found, err = tx.User(id)
		return err
	})
	return found, err
}

// UpdatePasswordHash replaces the stored hash.
func (r *StoreRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		u, err := tx.User(id)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		return tx.PutUser(u)
	})
}
