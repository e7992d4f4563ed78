package ports

import (
	"context"
	"time"

	parceldomain "zapshift/internal/features/parcels/domain"
	"zapshift/internal/features/payments/domain"
)

// PaymentService is the primary port of the payment reconciler.
type PaymentService interface {
	CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error)
	Reconcile(ctx context.Context, sessionID string) (*domain.ReconcileResult, error)
	List(ctx context.Context, customerEmail string) ([]domain.Payment, error)
}

// PaymentProvider opens and retrieves hosted checkout sessions.
type PaymentProvider interface {
	CreateSession(ctx context.Context, params domain.SessionParams) (*domain.Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// PaymentRepository is the secondary port for payment records. Create fails
// with a duplicate key error when the transaction id is already recorded.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	List(ctx context.Context, customerEmail string) ([]domain.Payment, error)
}

// ParcelStore is the view of parcel storage the reconciler needs.
type ParcelStore interface {
	FindByID(ctx context.Context, id string) (*parceldomain.Parcel, error)
	MarkPaid(ctx context.Context, id string, at time.Time) (bool, error)
}

// Transactor scopes work to a store transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
