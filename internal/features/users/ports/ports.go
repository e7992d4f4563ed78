package ports

import (
	"context"

	"zapshift/internal/features/users/domain"
)

// UserService defines the primary port for account operations.
type UserService interface {
	Register(ctx context.Context, email, name, photoURL string) (*domain.User, bool, error)
	List(ctx context.Context, emailSearch string) ([]domain.User, error)
	RoleOf(ctx context.Context, email string) (domain.Role, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	AssignRole(ctx context.Context, email string, role domain.Role) error
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// UserRepository defines the secondary port for account storage.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, emailSearch string) ([]domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (bool, error)
	UpdateRoleByEmail(ctx context.Context, email string, role domain.Role) (bool, error)
}
