package profiles

import (
	"context"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	RoleFor(ctx context.Context, userID string) (Role, error)
	List(ctx context.Context) ([]Profile, error)
	SetRole(ctx context.Context, userID string, role Role) error
}

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RoleFor resolves the role of a user.
func (s *Service) RoleFor(ctx context.Context, userID string) (Role, error) {
	if userID == "" {
		return RoleNone, ErrNotFound
	}
	return s.repo.RoleFor(ctx, userID)
}

// List returns all profiles.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.repo.List(ctx)
}

// Grant assigns a role to an existing profile.
func (s *Service) Grant(ctx context.Context, userID string, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	return s.repo.SetRole(ctx, userID, role)
}

var _ RepositoryPort = (*Repository)(nil)
