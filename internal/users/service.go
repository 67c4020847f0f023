package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/elmeel/warehouse/internal/auth"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]store.User, error)
	GetUser(ctx context.Context, id string) (store.User, error)
	SaveUser(ctx context.Context, u store.User) error
	DeleteUser(ctx context.Context, id string) (store.User, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	audit      AuditPort
	bcryptCost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort, bcryptCost int) *Service {
	return &Service{repo: repo, audit: audit, bcryptCost: bcryptCost}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]store.User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id string) (store.User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers a new account.
func (s *Service) CreateUser(ctx context.Context, input UserInput) (store.User, error) {
	if input.Password == "" {
		return store.User{}, ErrPasswordRequired
	}
	u := store.User{ID: uuid.NewString()}
	if err := s.apply(&u, input); err != nil {
		return store.User{}, err
	}
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return store.User{}, err
	}
	s.record(ctx, "user.create", u)
	return u, nil
}

// UpdateUser edits an account.
func (s *Service) UpdateUser(ctx context.Context, id string, input UserInput) (store.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return store.User{}, err
	}
	if err := s.apply(&u, input); err != nil {
		return store.User{}, err
	}
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return store.User{}, err
	}
	s.record(ctx, "user.update", u)
	return u, nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	u, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	s.record(ctx, "user.delete", u)
	return nil
}

func (s *Service) apply(u *store.User, input UserInput) error {
	if !rbac.ValidRole(input.Role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, input.Role)
	}
	u.Name = strings.TrimSpace(input.Name)
	u.Email = strings.ToLower(strings.TrimSpace(input.Email))
	u.Role = input.Role
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, u store.User) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "user",
		EntityID: u.ID,
		Meta:     map[string]any{"email": u.Email, "role": string(u.Role)},
	})
}
