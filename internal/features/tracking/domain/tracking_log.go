package domain

import (
	"fmt"
	"strings"
	"time"

	"zapshift/internal/core/apperror"

	"github.com/google/uuid"
)

// Entry is one immutable event in a parcel's timeline.
type Entry struct {
	// ID identifies the entry.
	ID string `json:"id"`
	// TrackingID is the parcel tracking identifier the entry belongs to.
	TrackingID string `json:"trackingId"`
	// Status is the lifecycle label, e.g. "pending-pickup".
	Status string `json:"status"`
	// Details is the human readable form of Status.
	Details string `json:"details"`
	// CreatedAt is when the event was recorded.
	CreatedAt time.Time `json:"createdAt"`
}

// Timeline is the ordered audit trail of a parcel.
type Timeline struct {
	// TrackingID is the parcel tracking identifier.
	TrackingID string `json:"trackingId"`
	// CurrentStatus is the status of the latest entry.
	CurrentStatus string `json:"currentStatus"`
	// History holds every entry ordered by creation time.
	History []Entry `json:"history"`
}

var separators = strings.NewReplacer("_", " ", "-", " ")

// DetailsFor turns a status label into its readable form.
func DetailsFor(status string) string {
	return separators.Replace(status)
}

// NewEntry builds an entry stamped with now.
func NewEntry(trackingID, status string, now time.Time) (*Entry, error) {
	trackingID = strings.TrimSpace(trackingID)
	status = strings.TrimSpace(status)
	if trackingID == "" {
		return nil, apperror.Invalid("tracking id is required")
	}
	if status == "" {
		return nil, apperror.Invalid("status is required")
	}

	return &Entry{
		ID:         uuid.NewString(),
		TrackingID: trackingID,
		Status:     status,
		Details:    DetailsFor(status),
		CreatedAt:  now.UTC(),
	}, nil
}

// NewTimeline wraps entries already ordered by creation time.
func NewTimeline(trackingID string, entries []Entry) (*Timeline, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: tracking id %s", apperror.ErrNotFound, trackingID)
	}
	return &Timeline{
		TrackingID:    trackingID,
		CurrentStatus: entries[len(entries)-1].Status,
		History:       entries,
	}, nil
}
