package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapshift/internal/core/database"
	"zapshift/internal/features/riders/domain"

	"gorm.io/gorm"
)

type riderRecord struct {
	ID             string    `gorm:"primaryKey;type:uuid"`
	Name           string    `gorm:"not null"`
	Email          string    `gorm:"not null;uniqueIndex"`
	Phone          string    `gorm:"not null"`
	Region         string    `gorm:"not null"`
	District       string    `gorm:"not null"`
	ApprovalStatus string    `gorm:"not null"`
	WorkingStatus  string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	ApprovedAt     *time.Time
}

func (riderRecord) TableName() string { return "riders" }

func (r riderRecord) toDomain() domain.Rider {
	rider := domain.Rider{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Region:         r.Region,
		District:       r.District,
		ApprovalStatus: r.ApprovalStatus,
		WorkingStatus:  r.WorkingStatus,
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.ApprovedAt != nil {
		at := r.ApprovedAt.UTC()
		rider.ApprovedAt = &at
	}
	return rider
}

// GormRiderRepository implements ports.RiderRepository.
type GormRiderRepository struct {
	db *gorm.DB
}

// NewGormRiderRepository creates a new GormRiderRepository.
func NewGormRiderRepository(db *gorm.DB) *GormRiderRepository {
	return &GormRiderRepository{db: db}
}

// Create inserts rider. A taken email surfaces as gorm.ErrDuplicatedKey.
func (r *GormRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	rec := riderRecord{
		ID:             rider.ID,
		Name:           rider.Name,
		Email:          rider.Email,
		Phone:          rider.Phone,
		Region:         rider.Region,
		District:       rider.District,
		ApprovalStatus: rider.ApprovalStatus,
		WorkingStatus:  rider.WorkingStatus,
		CreatedAt:      rider.CreatedAt,
		ApprovedAt:     rider.ApprovedAt,
	}
	if err := database.Conn(ctx, r.db).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create rider: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when id is unknown.
func (r *GormRiderRepository) FindByID(ctx context.Context, id string) (*domain.Rider, error) {
	var rec riderRecord
	err := database.Conn(ctx, r.db).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rider: %w", err)
	}
	rider := rec.toDomain()
	return &rider, nil
}

// List returns the riders matching filter, oldest application first.
func (r *GormRiderRepository) List(ctx context.Context, filter domain.Filter) ([]domain.Rider, error) {
	q := database.Conn(ctx, r.db).Order("created_at ASC")
	if filter.ApprovalStatus != "" {
		q = q.Where("approval_status = ?", filter.ApprovalStatus)
	}
	if filter.WorkingStatus != "" {
		q = q.Where("working_status = ?", filter.WorkingStatus)
	}
	if filter.Region != "" {
		q = q.Where("region = ?", filter.Region)
	}
	if filter.District != "" {
		q = q.Where("district = ?", filter.District)
	}

	var recs []riderRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list riders: %w", err)
	}
	riders := make([]domain.Rider, len(recs))
	for i, rec := range recs {
		riders[i] = rec.toDomain()
	}
	return riders, nil
}

// Approve moves a pending rider to approved.
func (r *GormRiderRepository) Approve(ctx context.Context, id string, at time.Time) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&riderRecord{}).
		Where("id = ? AND approval_status = ?", id, domain.ApprovalPending).
		Updates(map[string]any{
			"approval_status": domain.ApprovalApproved,
			"approved_at":     at.UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to approve rider: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteIdle removes the rider unless it is carrying a parcel.
func (r *GormRiderRepository) DeleteIdle(ctx context.Context, id string) (bool, error) {
	res := database.Conn(ctx, r.db).
		Where("id = ? AND working_status <> ?", id, domain.WorkingInDelivery).
		Delete(&riderRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete rider: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkInDelivery claims an approved, available rider.
func (r *GormRiderRepository) MarkInDelivery(ctx context.Context, id string) (bool, error) {
	return r.setWorking(ctx, id, domain.WorkingAvailable, domain.WorkingInDelivery)
}

// MarkAvailable releases a rider that is in delivery.
func (r *GormRiderRepository) MarkAvailable(ctx context.Context, id string) (bool, error) {
	return r.setWorking(ctx, id, domain.WorkingInDelivery, domain.WorkingAvailable)
}

func (r *GormRiderRepository) setWorking(ctx context.Context, id, from, to string) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&riderRecord{}).
		Where("id = ? AND approval_status = ? AND working_status = ?", id, domain.ApprovalApproved, from).
		Update("working_status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to set rider working status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
