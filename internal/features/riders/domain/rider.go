package domain

import (
	"strings"
	"time"

	"zapshift/internal/core/apperror"

	"github.com/google/uuid"
)

// Approval states of a rider application.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
)

// Working states of a rider.
const (
	WorkingAvailable  = "available"
	WorkingInDelivery = "in_delivery"
)

// Rider is a courier who applied to carry parcels.
type Rider struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Region         string     `json:"region"`
	District       string     `json:"district"`
	ApprovalStatus string     `json:"status"`
	WorkingStatus  string     `json:"workStatus"`
	CreatedAt      time.Time  `json:"createdAt"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
}

// Application is the data a prospective rider submits.
type Application struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Region   string `json:"region"`
	District string `json:"district"`
}

// Validate checks the required fields of an application.
func (a Application) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return apperror.Invalid("name is required")
	}
	if strings.TrimSpace(a.Region) == "" {
		return apperror.Invalid("region is required")
	}
	return nil
}

// Filter narrows a rider listing. Empty fields match everything.
type Filter struct {
	ApprovalStatus string
	WorkingStatus  string
	Region         string
	District       string
}

// Validate rejects unknown status values.
func (f Filter) Validate() error {
	switch f.ApprovalStatus {
	case "", ApprovalPending, ApprovalApproved:
	default:
		return apperror.Invalid("unknown approval status %q", f.ApprovalStatus)
	}
	switch f.WorkingStatus {
	case "", WorkingAvailable, WorkingInDelivery:
	default:
		return apperror.Invalid("unknown working status %q", f.WorkingStatus)
	}
	return nil
}

// NewRider creates a pending, available rider for email.
func NewRider(email string, app Application, now time.Time) (*Rider, error) {
	if err := app.Validate(); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.Invalid("email is required")
	}
	return &Rider{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(app.Name),
		Email:          email,
		Phone:          strings.TrimSpace(app.Phone),
		Region:         strings.TrimSpace(app.Region),
		District:       strings.TrimSpace(app.District),
		ApprovalStatus: ApprovalPending,
		WorkingStatus:  WorkingAvailable,
		CreatedAt:      now.UTC(),
	}, nil
}

// CanDeliver reports whether the rider may take a new assignment.
func (r *Rider) CanDeliver() bool {
	return r.ApprovalStatus == ApprovalApproved && r.WorkingStatus == WorkingAvailable
}

// ParseID validates a rider identifier.
func ParseID(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", apperror.Invalid("rider id %q is malformed", id)
	}
	return id, nil
}
