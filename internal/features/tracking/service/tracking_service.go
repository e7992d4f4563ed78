package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/events"
	"zapshift/internal/core/logger"
	"zapshift/internal/core/metrics"
	"zapshift/internal/features/tracking/domain"
	"zapshift/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// TrackingService appends timeline entries and serves the public timeline.
type TrackingService struct {
	repo      ports.LogRepository
	cache     ports.TimelineCache
	tx        ports.Transactor
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	log       *zap.Logger
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(
	repo ports.LogRepository,
	cache ports.TimelineCache,
	tx ports.Transactor,
	publisher events.Publisher,
	m *metrics.Metrics,
) *TrackingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &TrackingService{
		repo:      repo,
		cache:     cache,
		tx:        tx,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
		log:       logger.Named("tracking"),
	}
}

// Append writes one entry for trackingID.
func (s *TrackingService) Append(ctx context.Context, trackingID, status string) (*domain.Entry, error) {
	entry, err := domain.NewEntry(trackingID, status, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, apperror.Upstream("append tracking log", err)
	}
	return entry, nil
}

// Record writes one entry inside its own savepoint so a failed write never
// aborts the caller's transaction. Failures are logged and yield nil.
func (s *TrackingService) Record(ctx context.Context, trackingID, status string) *domain.Entry {
	var entry *domain.Entry
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.Append(ctx, trackingID, status)
		return err
	})
	if err != nil {
		s.log.Warn("Tracking log not recorded",
			zap.String("tracking_id", trackingID),
			zap.String("status", status),
			zap.Error(err),
		)
		return nil
	}
	return entry
}

// lifecycleEvent is the message published for every committed entry.
type lifecycleEvent struct {
	TrackingID string    `json:"trackingId"`
	Status     string    `json:"status"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Announce runs after the entries' transaction committed: it drops the
// cached timelines, counts the events and publishes them.
func (s *TrackingService) Announce(ctx context.Context, entries ...*domain.Entry) {
	for _, entry := range entries {
		if entry == nil {
			continue
		}

		if err := s.cache.Invalidate(ctx, entry.TrackingID); err != nil {
			s.log.Warn("Timeline cache invalidation failed",
				zap.String("tracking_id", entry.TrackingID),
				zap.Error(err),
			)
		}

		s.metrics.TrackingEvent(entry.Status)

		payload, err := json.Marshal(lifecycleEvent{
			TrackingID: entry.TrackingID,
			Status:     entry.Status,
			Details:    entry.Details,
			CreatedAt:  entry.CreatedAt,
		})
		if err == nil {
			err = s.publisher.Publish(ctx, entry.TrackingID, payload)
		}
		if err != nil {
			s.metrics.EventPublishFailure()
			s.log.Warn("Lifecycle event not published",
				zap.String("tracking_id", entry.TrackingID),
				zap.String("status", entry.Status),
				zap.Error(err),
			)
		}
	}
}

// Timeline returns the history of trackingID, cache first.
func (s *TrackingService) Timeline(ctx context.Context, trackingID string) (*domain.Timeline, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, apperror.Invalid("tracking id is required")
	}

	cached, generation, err := s.cache.Get(ctx, trackingID)
	if err != nil {
		s.log.Warn("Timeline cache read failed", zap.String("tracking_id", trackingID), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	entries, err := s.repo.ListByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, apperror.Upstream("list tracking logs", err)
	}

	timeline, err := domain.NewTimeline(trackingID, entries)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, timeline, generation); err != nil {
		s.log.Warn("Timeline cache write failed", zap.String("tracking_id", trackingID), zap.Error(err))
	}
	return timeline, nil
}

var _ ports.TrackingService = (*TrackingService)(nil)
