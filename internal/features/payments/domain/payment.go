package domain

import (
	"math"
	"strings"
	"time"

	"zapshift/internal/core/apperror"
	authdomain "zapshift/internal/features/auth/domain"
	parceldomain "zapshift/internal/features/parcels/domain"

	"github.com/google/uuid"
)

// ProviderStatusPaid is the provider's payment status of a settled session.
const ProviderStatusPaid = "paid"

// Metadata keys attached to every checkout session.
const (
	MetaParcelID   = "parcelId"
	MetaParcelName = "parcelName"
	MetaTrackingID = "trackingId"
)

// Payment is the settled payment of one parcel, unique per provider transaction.
type Payment struct {
	ID            string    `json:"_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	CustomerEmail string    `json:"customerEmail"`
	ParcelID      string    `json:"parcelId"`
	ParcelName    string    `json:"parcelName"`
	TrackingID    string    `json:"trackingId"`
	TransactionID string    `json:"transectionId"`
	SessionID     string    `json:"sessionId"`
	PaymentStatus string    `json:"paymentStatus"`
	PaidAt        time.Time `json:"paidAt"`
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	PaymentIntent string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
}

// TransactionID returns the idempotence key of the session's payment.
func (s *Session) TransactionID() string {
	if s.PaymentIntent != "" {
		return s.PaymentIntent
	}
	return s.ID
}

// SessionParams describes the checkout session to open.
type SessionParams struct {
	AmountMinor   int64
	Currency      string
	ProductName   string
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// NewPayment builds the payment record of a settled session.
func NewPayment(s *Session, parcel *parceldomain.Parcel, now time.Time) *Payment {
	name := s.Metadata[MetaParcelName]
	if name == "" {
		name = parcel.ParcelName
	}
	return &Payment{
		ID:            uuid.NewString(),
		Amount:        float64(s.AmountTotal) / 100,
		Currency:      strings.ToLower(s.Currency),
		CustomerEmail: strings.ToLower(s.CustomerEmail),
		ParcelID:      parcel.ID,
		ParcelName:    name,
		TrackingID:    parcel.TrackingID,
		TransactionID: s.TransactionID(),
		SessionID:     s.ID,
		PaymentStatus: s.PaymentStatus,
		PaidAt:        now.UTC(),
	}
}

// CheckoutRequest is the body of POST /payment-checkout-session.
type CheckoutRequest struct {
	ParcelID    string  `json:"parcelId"`
	ParcelName  string  `json:"ParcelName"`
	Cost        float64 `json:"Cost"`
	SenderEmail string  `json:"SenderEmail"`
	TrackingID  string  `json:"trackingId"`

	// Caller is the verified identity opening the checkout.
	Caller authdomain.Caller `json:"-"`
}

// Validate checks the checkout request.
func (r CheckoutRequest) Validate() error {
	if _, err := uuid.Parse(r.ParcelID); err != nil {
		return apperror.Invalid("parcel id %q is malformed", r.ParcelID)
	}
	if r.Cost < 0 || math.IsNaN(r.Cost) {
		return apperror.Invalid("Cost must not be negative")
	}
	return nil
}

// CheckoutResponse carries the hosted checkout page.
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// ReconcileResult is the outcome of a payment confirmation callback. Not
// applied and duplicate callbacks are results, not errors.
type ReconcileResult struct {
	Success          bool                 `json:"success"`
	AlreadyProcessed bool                 `json:"alreadyProcessed,omitempty"`
	Message          string               `json:"message,omitempty"`
	Parcel           *parceldomain.Parcel `json:"modifyParcel,omitempty"`
	Payment          *Payment             `json:"paymentInfo,omitempty"`
	TrackingID       string               `json:"trackingId,omitempty"`
	TransactionID    string               `json:"transectionId,omitempty"`
}
