package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapshift/internal/core/database"
	"zapshift/internal/features/parcels/domain"

	"gorm.io/gorm"
)

type parcelRecord struct {
	ID               string  `gorm:"primaryKey;type:uuid"`
	ParcelName       string  `gorm:"not null"`
	ParcelType       string  `gorm:"not null"`
	Weight           float64 `gorm:"not null"`
	SenderName       string  `gorm:"not null"`
	SenderEmail      string  `gorm:"not null;index"`
	SenderRegion     string  `gorm:"not null"`
	SenderDistrict   string  `gorm:"not null"`
	SenderAddress    string  `gorm:"not null"`
	ReceiverName     string  `gorm:"not null"`
	ReceiverEmail    string  `gorm:"not null"`
	ReceiverPhone    string  `gorm:"not null"`
	ReceiverRegion   string  `gorm:"not null"`
	ReceiverDistrict string  `gorm:"not null"`
	ReceiverAddress  string  `gorm:"not null"`
	Cost             float64 `gorm:"not null"`
	TrackingID       string  `gorm:"not null;uniqueIndex"`
	DeliveryStatus   string  `gorm:"not null;index"`
	PaymentStatus    string  `gorm:"not null"`
	RiderID          *string `gorm:"type:uuid"`
	RiderEmail       *string `gorm:"index"`
	RiderName        *string
	CreatedAt        time.Time `gorm:"not null"`
	PaidAt           *time.Time
}

func (parcelRecord) TableName() string { return "parcels" }

func fromDomain(p *domain.Parcel) parcelRecord {
	return parcelRecord{
		ID:               p.ID,
		ParcelName:       p.ParcelName,
		ParcelType:       p.ParcelType,
		Weight:           p.Weight,
		SenderName:       p.SenderName,
		SenderEmail:      p.SenderEmail,
		SenderRegion:     p.SenderRegion,
		SenderDistrict:   p.SenderDistrict,
		SenderAddress:    p.SenderAddress,
		ReceiverName:     p.ReceiverName,
		ReceiverEmail:    p.ReceiverEmail,
		ReceiverPhone:    p.ReceiverPhone,
		ReceiverRegion:   p.ReceiverRegion,
		ReceiverDistrict: p.ReceiverDistrict,
		ReceiverAddress:  p.ReceiverAddress,
		Cost:             p.Cost,
		TrackingID:       p.TrackingID,
		DeliveryStatus:   p.DeliveryStatus,
		PaymentStatus:    p.PaymentStatus,
		RiderID:          p.RiderID,
		RiderEmail:       p.RiderEmail,
		RiderName:        p.RiderName,
		CreatedAt:        p.CreatedAt,
		PaidAt:           p.PaidAt,
	}
}

func (r parcelRecord) toDomain() domain.Parcel {
	p := domain.Parcel{
		ID:               r.ID,
		ParcelName:       r.ParcelName,
		ParcelType:       r.ParcelType,
		Weight:           r.Weight,
		SenderName:       r.SenderName,
		SenderEmail:      r.SenderEmail,
		SenderRegion:     r.SenderRegion,
		SenderDistrict:   r.SenderDistrict,
		SenderAddress:    r.SenderAddress,
		ReceiverName:     r.ReceiverName,
		ReceiverEmail:    r.ReceiverEmail,
		ReceiverPhone:    r.ReceiverPhone,
		ReceiverRegion:   r.ReceiverRegion,
		ReceiverDistrict: r.ReceiverDistrict,
		ReceiverAddress:  r.ReceiverAddress,
		Cost:             r.Cost,
		TrackingID:       r.TrackingID,
		DeliveryStatus:   r.DeliveryStatus,
		PaymentStatus:    r.PaymentStatus,
		RiderID:          r.RiderID,
		RiderEmail:       r.RiderEmail,
		RiderName:        r.RiderName,
		CreatedAt:        r.CreatedAt.UTC(),
	}
	if r.PaidAt != nil {
		at := r.PaidAt.UTC()
		p.PaidAt = &at
	}
	return p
}

func toDomainList(recs []parcelRecord) []domain.Parcel {
	parcels := make([]domain.Parcel, len(recs))
	for i, rec := range recs {
		parcels[i] = rec.toDomain()
	}
	return parcels
}

// GormParcelRepository implements ports.ParcelRepository.
type GormParcelRepository struct {
	db *gorm.DB
}

// NewGormParcelRepository creates a new GormParcelRepository.
func NewGormParcelRepository(db *gorm.DB) *GormParcelRepository {
	return &GormParcelRepository{db: db}
}

// Create inserts parcel. A taken tracking id surfaces as gorm.ErrDuplicatedKey.
func (r *GormParcelRepository) Create(ctx context.Context, parcel *domain.Parcel) error {
	rec := fromDomain(parcel)
	if err := database.Conn(ctx, r.db).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create parcel: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when id is unknown.
func (r *GormParcelRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	var rec parcelRecord
	err := database.Conn(ctx, r.db).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find parcel: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}

// List returns parcels matching filter, newest first.
func (r *GormParcelRepository) List(ctx context.Context, filter domain.Filter) ([]domain.Parcel, error) {
	q := database.Conn(ctx, r.db).Order("created_at DESC")
	if filter.SenderEmail != "" {
		q = q.Where("sender_email = ?", filter.SenderEmail)
	}
	if filter.DeliveryStatus != "" {
		q = q.Where("delivery_status = ?", filter.DeliveryStatus)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}

	var recs []parcelRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	return toDomainList(recs), nil
}

// ListByRider returns the parcels assigned to riderEmail, newest first.
func (r *GormParcelRepository) ListByRider(ctx context.Context, riderEmail string, activeOnly bool) ([]domain.Parcel, error) {
	q := database.Conn(ctx, r.db).Where("rider_email = ?", riderEmail).Order("created_at DESC")
	if activeOnly {
		q = q.Where("delivery_status IN ?", domain.ActiveStatuses)
	}

	var recs []parcelRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list rider parcels: %w", err)
	}
	return toDomainList(recs), nil
}

// DeleteUnpaid removes an unpaid parcel owned by senderEmail.
func (r *GormParcelRepository) DeleteUnpaid(ctx context.Context, id, senderEmail string) (bool, error) {
	res := database.Conn(ctx, r.db).
		Where("id = ? AND sender_email = ? AND payment_status = ?", id, senderEmail, domain.PaymentUnpaid).
		Delete(&parcelRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete parcel: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AssignRider stores rider on a paid parcel awaiting pickup.
func (r *GormParcelRepository) AssignRider(ctx context.Context, id string, rider domain.RiderRef) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&parcelRecord{}).
		Where("id = ? AND payment_status = ? AND delivery_status = ?", id, domain.PaymentPaid, domain.StatusPendingPickup).
		Updates(map[string]any{
			"delivery_status": domain.StatusAssigned,
			"rider_id":        rider.ID,
			"rider_email":     rider.Email,
			"rider_name":      rider.Name,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to assign rider: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateStatus moves the parcel to status to when it is currently in one of from.
func (r *GormParcelRepository) UpdateStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&parcelRecord{}).
		Where("id = ? AND delivery_status IN ?", id, from).
		Update("delivery_status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update parcel status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkPaid applies the paid transition once.
func (r *GormParcelRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&parcelRecord{}).
		Where("id = ? AND payment_status = ?", id, domain.PaymentUnpaid).
		Updates(map[string]any{
			"payment_status":  domain.PaymentPaid,
			"paid_at":         at.UTC(),
			"delivery_status": domain.StatusPendingPickup,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark parcel paid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// StatusCounts returns the number of parcels per delivery status.
func (r *GormParcelRepository) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	var rows []struct {
		DeliveryStatus string
		Count          int64
	}
	err := database.Conn(ctx, r.db).Model(&parcelRecord{}).
		Select("delivery_status, COUNT(*) AS count").
		Group("delivery_status").
		Order("delivery_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count parcels by status: %w", err)
	}

	counts := make([]domain.StatusCount, len(rows))
	for i, row := range rows {
		counts[i] = domain.StatusCount{Status: row.DeliveryStatus, Count: row.Count}
	}
	return counts, nil
}

// DeliveryTimes returns the timestamps of the delivered entries logged for
// the parcels of riderID.
func (r *GormParcelRepository) DeliveryTimes(ctx context.Context, riderID string) ([]time.Time, error) {
	var times []time.Time
	err := database.Conn(ctx, r.db).
		Table("parcels AS p").
		Joins("JOIN tracking_logs AS l ON l.tracking_id = p.tracking_id").
		Where("p.rider_id = ? AND l.status = ?", riderID, domain.StatusDelivered).
		Order("l.created_at ASC").
		Pluck("l.created_at", &times).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rider deliveries: %w", err)
	}
	return times, nil
}
