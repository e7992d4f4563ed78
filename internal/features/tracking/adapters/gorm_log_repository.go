package adapters

import (
	"context"
	"fmt"
	"time"

	"zapshift/internal/core/database"
	"zapshift/internal/features/tracking/domain"

	"gorm.io/gorm"
)

// trackingLogRecord is the persisted shape of a tracking entry.
type trackingLogRecord struct {
	ID         string    `gorm:"primaryKey;type:uuid"`
	TrackingID string    `gorm:"not null;index"`
	Status     string    `gorm:"not null"`
	Details    string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (trackingLogRecord) TableName() string { return "tracking_logs" }

// GormLogRepository implements ports.LogRepository on the relational store.
type GormLogRepository struct {
	db *gorm.DB
}

// NewGormLogRepository creates a new GormLogRepository.
func NewGormLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

// Append inserts entry, joining the transaction carried by ctx if any.
func (r *GormLogRepository) Append(ctx context.Context, entry *domain.Entry) error {
	rec := trackingLogRecord{
		ID:         entry.ID,
		TrackingID: entry.TrackingID,
		Status:     entry.Status,
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt,
	}
	if err := database.Conn(ctx, r.db).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to append tracking log: %w", err)
	}
	return nil
}

// ListByTrackingID returns the entries of trackingID oldest first.
func (r *GormLogRepository) ListByTrackingID(ctx context.Context, trackingID string) ([]domain.Entry, error) {
	var recs []trackingLogRecord
	err := database.Conn(ctx, r.db).
		Where("tracking_id = ?", trackingID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking logs: %w", err)
	}

	entries := make([]domain.Entry, len(recs))
	for i, rec := range recs {
		entries[i] = domain.Entry{
			ID:         rec.ID,
			TrackingID: rec.TrackingID,
			Status:     rec.Status,
			Details:    rec.Details,
			CreatedAt:  rec.CreatedAt.UTC(),
		}
	}
	return entries, nil
}
