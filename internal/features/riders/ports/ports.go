package ports

import (
	"context"
	"time"

	"zapshift/internal/features/riders/domain"
	userdomain "zapshift/internal/features/users/domain"
)

// RiderService defines the primary port for rider management.
type RiderService interface {
	Apply(ctx context.Context, email string, app domain.Application) (*domain.Rider, error)
	Get(ctx context.Context, id string) (*domain.Rider, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Rider, error)
	Approve(ctx context.Context, id string) (*domain.Rider, error)
	Delete(ctx context.Context, id string) error
}

// RiderRepository defines the secondary port for rider storage. The
// working status updates are guarded so concurrent transitions cannot both
// succeed; the boolean reports whether a row changed.
type RiderRepository interface {
	Create(ctx context.Context, rider *domain.Rider) error
	FindByID(ctx context.Context, id string) (*domain.Rider, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Rider, error)
	Approve(ctx context.Context, id string, at time.Time) (bool, error)
	DeleteIdle(ctx context.Context, id string) (bool, error)
	MarkInDelivery(ctx context.Context, id string) (bool, error)
	MarkAvailable(ctx context.Context, id string) (bool, error)
}

// RoleAssigner updates the account role of an approved rider.
type RoleAssigner interface {
	AssignRole(ctx context.Context, email string, role userdomain.Role) error
}

// Transactor scopes work to a store transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
