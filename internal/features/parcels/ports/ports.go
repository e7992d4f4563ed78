package ports

import (
	"context"
	"time"

	"zapshift/internal/features/parcels/domain"
	riderdomain "zapshift/internal/features/riders/domain"
)

// ParcelService is the primary port of the lifecycle coordinator.
type ParcelService interface {
	Create(ctx context.Context, in domain.CreateInput) (*domain.Parcel, error)
	Get(ctx context.Context, id string) (*domain.Parcel, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Parcel, error)
	ListForRider(ctx context.Context, riderEmail string, activeOnly bool) ([]domain.Parcel, error)
	Delete(ctx context.Context, id, senderEmail string) error
	AssignRider(ctx context.Context, in domain.AssignInput) (*domain.Parcel, error)
	SetStatus(ctx context.Context, in domain.StatusInput) (*domain.Parcel, error)
	DeliveriesPerDay(ctx context.Context, riderID string) ([]domain.DayCount, error)
	StatusDistribution(ctx context.Context) ([]domain.StatusCount, error)
}

// ParcelRepository is the secondary port for parcel storage. Mutations are
// guarded on the current state and report whether a row changed.
type ParcelRepository interface {
	Create(ctx context.Context, parcel *domain.Parcel) error
	FindByID(ctx context.Context, id string) (*domain.Parcel, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Parcel, error)
	ListByRider(ctx context.Context, riderEmail string, activeOnly bool) ([]domain.Parcel, error)
	DeleteUnpaid(ctx context.Context, id, senderEmail string) (bool, error)
	AssignRider(ctx context.Context, id string, rider domain.RiderRef) (bool, error)
	UpdateStatus(ctx context.Context, id string, from []string, to string) (bool, error)
	MarkPaid(ctx context.Context, id string, at time.Time) (bool, error)
	StatusCounts(ctx context.Context) ([]domain.StatusCount, error)
	DeliveryTimes(ctx context.Context, riderID string) ([]time.Time, error)
}

// RiderStore is the view of rider storage the coordinator needs.
type RiderStore interface {
	FindByID(ctx context.Context, id string) (*riderdomain.Rider, error)
	MarkInDelivery(ctx context.Context, id string) (bool, error)
	MarkAvailable(ctx context.Context, id string) (bool, error)
}

// Transactor scopes work to a store transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
