package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zapshift/internal/core/database"
	"zapshift/internal/features/payments/domain"

	"gorm.io/gorm"
)

type paymentRecord struct {
	ID            string    `gorm:"primaryKey;type:uuid"`
	Amount        float64   `gorm:"not null"`
	Currency      string    `gorm:"not null"`
	CustomerEmail string    `gorm:"not null;index"`
	ParcelID      string    `gorm:"not null;type:uuid"`
	ParcelName    string    `gorm:"not null"`
	TrackingID    string    `gorm:"not null"`
	TransactionID string    `gorm:"not null;uniqueIndex"`
	SessionID     string    `gorm:"not null"`
	PaymentStatus string    `gorm:"not null"`
	PaidAt        time.Time `gorm:"not null"`
}

func (paymentRecord) TableName() string { return "payments" }

func (r paymentRecord) toDomain() domain.Payment {
	return domain.Payment{
		ID:            r.ID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		CustomerEmail: r.CustomerEmail,
		ParcelID:      r.ParcelID,
		ParcelName:    r.ParcelName,
		TrackingID:    r.TrackingID,
		TransactionID: r.TransactionID,
		SessionID:     r.SessionID,
		PaymentStatus: r.PaymentStatus,
		PaidAt:        r.PaidAt.UTC(),
	}
}

// GormPaymentRepository implements ports.PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts payment. A recorded transaction id surfaces as gorm.ErrDuplicatedKey.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	rec := paymentRecord{
		ID:            payment.ID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		CustomerEmail: payment.CustomerEmail,
		ParcelID:      payment.ParcelID,
		ParcelName:    payment.ParcelName,
		TrackingID:    payment.TrackingID,
		TransactionID: payment.TransactionID,
		SessionID:     payment.SessionID,
		PaymentStatus: payment.PaymentStatus,
		PaidAt:        payment.PaidAt.UTC(),
	}
	if err := database.Conn(ctx, r.db).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FindByTransactionID returns nil, nil when the transaction is unknown.
func (r *GormPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	var rec paymentRecord
	err := database.Conn(ctx, r.db).Where("transaction_id = ?", transactionID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}

// List returns payments, newest first, optionally restricted to customerEmail.
func (r *GormPaymentRepository) List(ctx context.Context, customerEmail string) ([]domain.Payment, error) {
	q := database.Conn(ctx, r.db).Order("paid_at DESC")
	if customerEmail != "" {
		q = q.Where("customer_email = ?", customerEmail)
	}

	var recs []paymentRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]domain.Payment, len(recs))
	for i, rec := range recs {
		payments[i] = rec.toDomain()
	}
	return payments, nil
}
