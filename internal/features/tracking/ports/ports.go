package ports

import (
	"context"

	"zapshift/internal/features/tracking/domain"
)

// TrackingService is the primary port used by the lifecycle features and the handler.
type TrackingService interface {
	// Append writes an entry and fails if the store rejects it.
	Append(ctx context.Context, trackingID, status string) (*domain.Entry, error)
	// Record writes an entry on a best effort basis. A failure is logged and nil is returned.
	Record(ctx context.Context, trackingID, status string) *domain.Entry
	// Announce runs the post-commit side effects for committed entries.
	Announce(ctx context.Context, entries ...*domain.Entry)
	// Timeline returns the ordered history of a tracking id.
	Timeline(ctx context.Context, trackingID string) (*domain.Timeline, error)
}

// LogRepository is the secondary port for the append-only log.
type LogRepository interface {
	Append(ctx context.Context, entry *domain.Entry) error
	ListByTrackingID(ctx context.Context, trackingID string) ([]domain.Entry, error)
}

// TimelineCache is the secondary port caching public timelines.
type TimelineCache interface {
	// Get returns a nil timeline on a miss, and the generation to stamp
	// a timeline loaded afterwards with.
	Get(ctx context.Context, trackingID string) (*domain.Timeline, int64, error)
	Set(ctx context.Context, timeline *domain.Timeline, generation int64) error
	Invalidate(ctx context.Context, trackingID string) error
}

// Transactor scopes work to a store transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
