package domain

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"zapshift/internal/core/apperror"
	authdomain "zapshift/internal/features/auth/domain"

	"github.com/google/uuid"
)

// Delivery states of a parcel.
const (
	StatusCreated       = "created"
	StatusPendingPickup = "pending-pickup"
	StatusAssigned      = "assigned-to-rider"
	StatusRiderArriving = "rider_arriving"
	StatusPickedUp      = "parcel_picked_up"
	StatusInTransit     = "in_transit"
	StatusDelivered     = "parcel_delivred"
)

// Payment states of a parcel.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// LabelCreated is the timeline label written when a parcel is booked.
const LabelCreated = "parcel_Created"

// ActiveStatuses are the states in which a rider holds the parcel.
var ActiveStatuses = []string{StatusAssigned, StatusRiderArriving, StatusPickedUp, StatusInTransit}

// IsStatusUpdate reports whether status may be set by a delivery update.
func IsStatusUpdate(status string) bool {
	switch status {
	case StatusRiderArriving, StatusPickedUp, StatusInTransit, StatusDelivered:
		return true
	}
	return false
}

// IsKnownStatus reports whether status is a delivery state.
func IsKnownStatus(status string) bool {
	return status == StatusCreated || status == StatusPendingPickup || status == StatusAssigned || IsStatusUpdate(status)
}

// Parcel is a shipment booked by a sender. JSON names follow the existing client contract.
type Parcel struct {
	ID               string     `json:"_id"`
	ParcelName       string     `json:"ParcelName"`
	ParcelType       string     `json:"parcelType"`
	Weight           float64    `json:"parcelWeight"`
	SenderName       string     `json:"senderName"`
	SenderEmail      string     `json:"SenderEmail"`
	SenderRegion     string     `json:"senderRegion"`
	SenderDistrict   string     `json:"senderDistrict"`
	SenderAddress    string     `json:"senderAddress"`
	ReceiverName     string     `json:"receiverName"`
	ReceiverEmail    string     `json:"receiverEmail"`
	ReceiverPhone    string     `json:"receiverPhone"`
	ReceiverRegion   string     `json:"receiverRegion"`
	ReceiverDistrict string     `json:"receiverDistrict"`
	ReceiverAddress  string     `json:"receiverAddress"`
	Cost             float64    `json:"Cost"`
	TrackingID       string     `json:"trackingId"`
	DeliveryStatus   string     `json:"delevaryStatus"`
	PaymentStatus    string     `json:"PaymentStatus"`
	RiderID          *string    `json:"riderId,omitempty"`
	RiderEmail       *string    `json:"riderEmail,omitempty"`
	RiderName        *string    `json:"riderName,omitempty"`
	CreatedAt        time.Time  `json:"CreatedAt"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

// CostMinorUnits returns the cost in cents.
func (p *Parcel) CostMinorUnits() int64 {
	return int64(math.Round(p.Cost * 100))
}

// HandledBy reports whether caller is the assigned rider or an admin.
func (p *Parcel) HandledBy(caller authdomain.Caller) bool {
	return caller.Admin || (p.RiderEmail != nil && caller.Is(*p.RiderEmail))
}

// VisibleTo reports whether caller may read the parcel: its sender, its
// assigned rider or an admin.
func (p *Parcel) VisibleTo(caller authdomain.Caller) bool {
	return caller.Is(p.SenderEmail) || p.HandledBy(caller)
}

// CreateInput is the booking payload.
type CreateInput struct {
	ParcelName       string  `json:"ParcelName"`
	ParcelType       string  `json:"parcelType"`
	Weight           float64 `json:"parcelWeight"`
	SenderName       string  `json:"senderName"`
	SenderEmail      string  `json:"SenderEmail"`
	SenderRegion     string  `json:"senderRegion"`
	SenderDistrict   string  `json:"senderDistrict"`
	SenderAddress    string  `json:"senderAddress"`
	ReceiverName     string  `json:"receiverName"`
	ReceiverEmail    string  `json:"receiverEmail"`
	ReceiverPhone    string  `json:"receiverPhone"`
	ReceiverRegion   string  `json:"receiverRegion"`
	ReceiverDistrict string  `json:"receiverDistrict"`
	ReceiverAddress  string  `json:"receiverAddress"`
	Cost             float64 `json:"Cost"`
}

// Validate checks the required booking fields.
func (in CreateInput) Validate() error {
	switch {
	case strings.TrimSpace(in.ParcelName) == "":
		return apperror.Invalid("ParcelName is required")
	case strings.TrimSpace(in.SenderEmail) == "":
		return apperror.Invalid("SenderEmail is required")
	case strings.TrimSpace(in.ReceiverName) == "":
		return apperror.Invalid("receiverName is required")
	case strings.TrimSpace(in.ReceiverAddress) == "":
		return apperror.Invalid("receiverAddress is required")
	case in.Cost <= 0 || math.IsNaN(in.Cost) || math.IsInf(in.Cost, 0):
		return apperror.Invalid("Cost must be positive")
	case in.Weight < 0:
		return apperror.Invalid("parcelWeight must not be negative")
	}
	return nil
}

// NewParcel builds an unpaid parcel in the created state. The tracking id is
// assigned by the caller.
func NewParcel(in CreateInput, now time.Time) (*Parcel, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &Parcel{
		ID:               uuid.NewString(),
		ParcelName:       strings.TrimSpace(in.ParcelName),
		ParcelType:       strings.TrimSpace(in.ParcelType),
		Weight:           in.Weight,
		SenderName:       strings.TrimSpace(in.SenderName),
		SenderEmail:      strings.ToLower(strings.TrimSpace(in.SenderEmail)),
		SenderRegion:     strings.TrimSpace(in.SenderRegion),
		SenderDistrict:   strings.TrimSpace(in.SenderDistrict),
		SenderAddress:    strings.TrimSpace(in.SenderAddress),
		ReceiverName:     strings.TrimSpace(in.ReceiverName),
		ReceiverEmail:    strings.ToLower(strings.TrimSpace(in.ReceiverEmail)),
		ReceiverPhone:    strings.TrimSpace(in.ReceiverPhone),
		ReceiverRegion:   strings.TrimSpace(in.ReceiverRegion),
		ReceiverDistrict: strings.TrimSpace(in.ReceiverDistrict),
		ReceiverAddress:  strings.TrimSpace(in.ReceiverAddress),
		Cost:             math.Round(in.Cost*100) / 100,
		DeliveryStatus:   StatusCreated,
		PaymentStatus:    PaymentUnpaid,
		CreatedAt:        now.UTC(),
	}, nil
}

const trackingAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTrackingID returns P-<base36 unix millis>-<4 uppercase base36 chars>.
// Uniqueness is enforced by the store, not by this generator.
func NewTrackingID(now time.Time) string {
	var suffix [4]byte
	for i := range suffix {
		suffix[i] = trackingAlphabet[rand.Intn(len(trackingAlphabet))]
	}
	return "P-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + string(suffix[:])
}

// ParseID validates a parcel identifier.
func ParseID(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", apperror.Invalid("parcel id %q is malformed", id)
	}
	return id, nil
}

// Filter narrows a parcel listing. Empty fields match everything.
type Filter struct {
	SenderEmail    string
	DeliveryStatus string
	PaymentStatus  string
}

// Validate rejects unknown status values.
func (f Filter) Validate() error {
	if f.DeliveryStatus != "" && !IsKnownStatus(f.DeliveryStatus) {
		return apperror.Invalid("unknown delivery status %q", f.DeliveryStatus)
	}
	switch f.PaymentStatus {
	case "", PaymentUnpaid, PaymentPaid:
		return nil
	}
	return apperror.Invalid("unknown payment status %q", f.PaymentStatus)
}

// RiderRef is the rider identity stored on an assigned parcel.
type RiderRef struct {
	ID    string
	Email string
	Name  string
}

// AssignInput is the rider assignment request.
type AssignInput struct {
	ParcelID   string `json:"-"`
	RiderID    string `json:"riderId"`
	RiderEmail string `json:"riderEmail"`
	RiderName  string `json:"riderName"`
	TrackingID string `json:"trackingId"`
}

// Validate checks the assignment identifiers.
func (in AssignInput) Validate() error {
	if _, err := ParseID(in.ParcelID); err != nil {
		return err
	}
	if _, err := uuid.Parse(in.RiderID); err != nil {
		return apperror.Invalid("rider id %q is malformed", in.RiderID)
	}
	return nil
}

// StatusInput is the delivery status update request.
type StatusInput struct {
	ParcelID   string `json:"-"`
	Status     string `json:"status"`
	RiderID    string `json:"riderId"`
	TrackingID string `json:"trackingId"`

	// Caller is the verified identity reporting the progress.
	Caller authdomain.Caller `json:"-"`
}

// Validate checks the requested status and identifiers.
func (in StatusInput) Validate() error {
	if _, err := ParseID(in.ParcelID); err != nil {
		return err
	}
	if !IsStatusUpdate(in.Status) {
		return apperror.Invalid("status %q cannot be set by a delivery update", in.Status)
	}
	if in.RiderID != "" {
		if _, err := uuid.Parse(in.RiderID); err != nil {
			return apperror.Invalid("rider id %q is malformed", in.RiderID)
		}
	}
	return nil
}

// DayCount is the number of deliveries completed on a UTC calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// StatusCount is the number of parcels currently in a delivery state.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
