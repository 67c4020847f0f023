package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
	cost  int
}

// NewService constructs a new Service. A zero cost uses bcrypt.DefaultCost.
func NewService(repo Repository, audit *shared.AuditLogger, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, audit: audit, cost: cost}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return store.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, shared.ErrInvalidCredentials
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{ActorID: user.ID, Action: "auth.login", Entity: "user", EntityID: user.ID})
	}
	return user, nil
}

// CurrentUser reloads the account behind a session.
func (s *Service) CurrentUser(ctx context.Context, id string) (store.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return store.User{}, shared.ErrUnauthenticated
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return shared.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}
	hash, err := HashPassword(next, s.cost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{ActorID: userID, Action: "auth.password_change", Entity: "user", EntityID: userID})
	}
	return nil
}

// HashPassword checks the length rule and returns a bcrypt hash.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
