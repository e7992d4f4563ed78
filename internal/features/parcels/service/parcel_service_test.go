package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/metrics"
	authdomain "zapshift/internal/features/auth/domain"
	"zapshift/internal/features/parcels/domain"
	riderdomain "zapshift/internal/features/riders/domain"
	trackingdomain "zapshift/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockParcelRepository is a mock implementation of ports.ParcelRepository.
type MockParcelRepository struct {
	mock.Mock
}

func (m *MockParcelRepository) Create(ctx context.Context, parcel *domain.Parcel) error {
	return m.Called(ctx, parcel).Error(0)
}

func (m *MockParcelRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) List(ctx context.Context, filter domain.Filter) ([]domain.Parcel, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) ListByRider(ctx context.Context, riderEmail string, activeOnly bool) ([]domain.Parcel, error) {
	args := m.Called(ctx, riderEmail, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Parcel), args.Error(1)
}

func (m *MockParcelRepository) DeleteUnpaid(ctx context.Context, id, senderEmail string) (bool, error) {
	args := m.Called(ctx, id, senderEmail)
	return args.Bool(0), args.Error(1)
}

func (m *MockParcelRepository) AssignRider(ctx context.Context, id string, rider domain.RiderRef) (bool, error) {
	args := m.Called(ctx, id, rider)
	return args.Bool(0), args.Error(1)
}

func (m *MockParcelRepository) UpdateStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockParcelRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockParcelRepository) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusCount), args.Error(1)
}

func (m *MockParcelRepository) DeliveryTimes(ctx context.Context, riderID string) ([]time.Time, error) {
	args := m.Called(ctx, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

// MockRiderStore is a mock implementation of ports.RiderStore.
type MockRiderStore struct {
	mock.Mock
}

func (m *MockRiderStore) FindByID(ctx context.Context, id string) (*riderdomain.Rider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*riderdomain.Rider), args.Error(1)
}

func (m *MockRiderStore) MarkInDelivery(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRiderStore) MarkAvailable(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockTrackingService is a mock implementation of tracking ports.TrackingService.
type MockTrackingService struct {
	mock.Mock
}

func (m *MockTrackingService) Append(ctx context.Context, trackingID, status string) (*trackingdomain.Entry, error) {
	args := m.Called(ctx, trackingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trackingdomain.Entry), args.Error(1)
}

func (m *MockTrackingService) Record(ctx context.Context, trackingID, status string) *trackingdomain.Entry {
	args := m.Called(ctx, trackingID, status)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*trackingdomain.Entry)
}

func (m *MockTrackingService) Announce(ctx context.Context, entries ...*trackingdomain.Entry) {
	m.Called(ctx, entries)
}

func (m *MockTrackingService) Timeline(ctx context.Context, trackingID string) (*trackingdomain.Timeline, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trackingdomain.Timeline), args.Error(1)
}

// passthroughTx runs fn without a store.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const (
	parcelID   = "3b241101-e2bb-4255-8caf-4136c566a962"
	riderID    = "5d7e1c3a-8b2f-4c6d-9e0a-1b2c3d4e5f60"
	trackingID = "P-lx8kuby8-AB12"
)

var fixedNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

type fixture struct {
	repo     *MockParcelRepository
	riders   *MockRiderStore
	tracking *MockTrackingService
	svc      *ParcelService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockParcelRepository),
		riders:   new(MockRiderStore),
		tracking: new(MockTrackingService),
	}
	f.svc = NewParcelService(f.repo, f.riders, f.tracking, passthroughTx{}, metrics.New())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func ptr(s string) *string { return &s }

func paidParcel(status string) *domain.Parcel {
	return &domain.Parcel{
		ID:             parcelID,
		TrackingID:     trackingID,
		SenderEmail:    "sender@example.com",
		PaymentStatus:  domain.PaymentPaid,
		DeliveryStatus: status,
	}
}

func approvedRider(working string) *riderdomain.Rider {
	return &riderdomain.Rider{
		ID:             riderID,
		Name:           "Rafi",
		Email:          "rider@example.com",
		ApprovalStatus: riderdomain.ApprovalApproved,
		WorkingStatus:  working,
	}
}

func validCreateInput() domain.CreateInput {
	return domain.CreateInput{
		ParcelName:      "Documents",
		SenderEmail:     "sender@example.com",
		ReceiverName:    "Receiver",
		ReceiverAddress: "Road 1",
		Cost:            500,
	}
}

func TestParcelService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns tracking id and logs creation", func(t *testing.T) {
		f := newFixture()
		entry := &trackingdomain.Entry{TrackingID: trackingID, Status: domain.LabelCreated}
		f.svc.newID = func(time.Time) string { return trackingID }
		f.repo.On("Create", ctx, mock.MatchedBy(func(p *domain.Parcel) bool {
			return p.TrackingID == trackingID && p.DeliveryStatus == domain.StatusCreated && p.PaymentStatus == domain.PaymentUnpaid
		})).Return(nil).Once()
		f.tracking.On("Record", ctx, trackingID, domain.LabelCreated).Return(entry).Once()
		f.tracking.On("Announce", ctx, []*trackingdomain.Entry{entry}).Once()

		p, err := f.svc.Create(ctx, validCreateInput())

		require.NoError(t, err)
		assert.Equal(t, trackingID, p.TrackingID)
		assert.True(t, p.CreatedAt.Equal(fixedNow))
		f.repo.AssertExpectations(t)
		f.tracking.AssertExpectations(t)
	})

	t.Run("retries on tracking id collision", func(t *testing.T) {
		f := newFixture()
		ids := []string{"P-a-AAAA", "P-a-BBBB"}
		calls := 0
		f.svc.newID = func(time.Time) string { calls++; return ids[calls-1] }
		f.repo.On("Create", ctx, mock.MatchedBy(func(p *domain.Parcel) bool { return p.TrackingID == "P-a-AAAA" })).
			Return(fmt.Errorf("failed to create parcel: %w", gorm.ErrDuplicatedKey)).Once()
		f.repo.On("Create", ctx, mock.MatchedBy(func(p *domain.Parcel) bool { return p.TrackingID == "P-a-BBBB" })).
			Return(nil).Once()
		f.tracking.On("Record", ctx, "P-a-BBBB", domain.LabelCreated).Return(nil).Once()
		f.tracking.On("Announce", ctx, mock.Anything).Once()

		p, err := f.svc.Create(ctx, validCreateInput())

		require.NoError(t, err)
		assert.Equal(t, "P-a-BBBB", p.TrackingID)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("dup: %w", gorm.ErrDuplicatedKey))

		_, err := f.svc.Create(ctx, validCreateInput())

		assert.ErrorIs(t, err, apperror.ErrUpstream)
		f.repo.AssertNumberOfCalls(t, "Create", maxTrackingIDAttempts)
		f.tracking.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := newFixture()
		in := validCreateInput()
		in.Cost = 0
		_, err := f.svc.Create(ctx, in)
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	})
}

func TestParcelService_AssignRider(t *testing.T) {
	ctx := context.Background()
	in := domain.AssignInput{ParcelID: parcelID, RiderID: riderID, RiderEmail: "rider@example.com", TrackingID: trackingID}
	ref := domain.RiderRef{ID: riderID, Email: "rider@example.com", Name: "Rafi"}

	t.Run("success", func(t *testing.T) {
		f := newFixture()
		assigned := paidParcel(domain.StatusAssigned)
		assigned.RiderID = ptr(riderID)
		entry := &trackingdomain.Entry{TrackingID: trackingID, Status: domain.StatusAssigned}

		f.repo.On("FindByID", ctx, parcelID).Return(paidParcel(domain.StatusPendingPickup), nil).Once()
		f.riders.On("FindByID", ctx, riderID).Return(approvedRider(riderdomain.WorkingAvailable), nil)
		f.repo.On("AssignRider", ctx, parcelID, ref).Return(true, nil)
		f.riders.On("MarkInDelivery", ctx, riderID).Return(true, nil)
		f.tracking.On("Record", ctx, trackingID, domain.StatusAssigned).Return(entry)
		f.repo.On("FindByID", ctx, parcelID).Return(assigned, nil).Once()
		f.tracking.On("Announce", ctx, []*trackingdomain.Entry{entry}).Once()

		p, err := f.svc.AssignRider(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusAssigned, p.DeliveryStatus)
		f.tracking.AssertExpectations(t)
	})

	tests := []struct {
		name    string
		parcel  *domain.Parcel
		rider   *riderdomain.Rider
		input   domain.AssignInput
		wantErr error
	}{
		{
			name:    "unpaid parcel",
			parcel:  &domain.Parcel{ID: parcelID, TrackingID: trackingID, PaymentStatus: domain.PaymentUnpaid, DeliveryStatus: domain.StatusCreated},
			input:   in,
			wantErr: apperror.ErrConflict,
		},
		{
			name:    "already assigned",
			parcel:  paidParcel(domain.StatusAssigned),
			input:   in,
			wantErr: apperror.ErrConflict,
		},
		{
			name:    "busy rider",
			parcel:  paidParcel(domain.StatusPendingPickup),
			rider:   approvedRider(riderdomain.WorkingInDelivery),
			input:   in,
			wantErr: apperror.ErrConflict,
		},
		{
			name:    "pending rider",
			parcel:  paidParcel(domain.StatusPendingPickup),
			rider:   &riderdomain.Rider{ID: riderID, Email: "rider@example.com", ApprovalStatus: riderdomain.ApprovalPending, WorkingStatus: riderdomain.WorkingAvailable},
			input:   in,
			wantErr: apperror.ErrConflict,
		},
		{
			name:    "mismatched tracking id",
			parcel:  paidParcel(domain.StatusPendingPickup),
			input:   domain.AssignInput{ParcelID: parcelID, RiderID: riderID, TrackingID: "P-other-ZZZZ"},
			wantErr: apperror.ErrInvalidArgument,
		},
		{
			name:    "mismatched rider email",
			parcel:  paidParcel(domain.StatusPendingPickup),
			rider:   approvedRider(riderdomain.WorkingAvailable),
			input:   domain.AssignInput{ParcelID: parcelID, RiderID: riderID, RiderEmail: "other@example.com"},
			wantErr: apperror.ErrInvalidArgument,
		},
		{
			name:    "malformed parcel id",
			input:   domain.AssignInput{ParcelID: "42", RiderID: riderID},
			wantErr: apperror.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.parcel != nil {
				f.repo.On("FindByID", ctx, parcelID).Return(tt.parcel, nil)
			}
			if tt.rider != nil {
				f.riders.On("FindByID", ctx, riderID).Return(tt.rider, nil)
			}

			_, err := f.svc.AssignRider(ctx, tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
			f.repo.AssertNotCalled(t, "AssignRider", mock.Anything, mock.Anything, mock.Anything)
			f.riders.AssertNotCalled(t, "MarkInDelivery", mock.Anything, mock.Anything)
			f.tracking.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)
		})
	}

	t.Run("rider claimed concurrently aborts", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, parcelID).Return(paidParcel(domain.StatusPendingPickup), nil)
		f.riders.On("FindByID", ctx, riderID).Return(approvedRider(riderdomain.WorkingAvailable), nil)
		f.repo.On("AssignRider", ctx, parcelID, ref).Return(true, nil)
		f.riders.On("MarkInDelivery", ctx, riderID).Return(false, nil)

		_, err := f.svc.AssignRider(ctx, in)

		assert.ErrorIs(t, err, apperror.ErrConflict)
		f.tracking.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown rider", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, parcelID).Return(paidParcel(domain.StatusPendingPickup), nil)
		f.riders.On("FindByID", ctx, riderID).Return(nil, nil)

		_, err := f.svc.AssignRider(ctx, in)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestParcelService_SetStatus(t *testing.T) {
	ctx := context.Background()

	assigned := func(status string) *domain.Parcel {
		p := paidParcel(status)
		p.RiderID = ptr(riderID)
		p.RiderEmail = ptr("rider@example.com")
		return p
	}
	rider := authdomain.Caller{Email: "rider@example.com"}
	admin := authdomain.Caller{Email: "admin@zapshift.test", Admin: true}

	t.Run("delivered releases the rider", func(t *testing.T) {
		f := newFixture()
		entry := &trackingdomain.Entry{TrackingID: trackingID, Status: domain.StatusDelivered}
		f.repo.On("FindByID", ctx, parcelID).Return(assigned(domain.StatusInTransit), nil).Once()
		f.repo.On("UpdateStatus", ctx, parcelID, domain.ActiveStatuses, domain.StatusDelivered).Return(true, nil)
		f.riders.On("MarkAvailable", ctx, riderID).Return(true, nil)
		f.tracking.On("Record", ctx, trackingID, domain.StatusDelivered).Return(entry)
		f.repo.On("FindByID", ctx, parcelID).Return(assigned(domain.StatusDelivered), nil).Once()
		f.tracking.On("Announce", ctx, []*trackingdomain.Entry{entry})

		p, err := f.svc.SetStatus(ctx, domain.StatusInput{
			ParcelID:   parcelID,
			Status:     domain.StatusDelivered,
			RiderID:    riderID,
			TrackingID: trackingID,
			Caller:     rider,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusDelivered, p.DeliveryStatus)
		f.riders.AssertExpectations(t)
	})

	t.Run("in transit keeps the rider busy", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, parcelID).Return(assigned(domain.StatusAssigned), nil)
		f.repo.On("UpdateStatus", ctx, parcelID, domain.ActiveStatuses, domain.StatusInTransit).Return(true, nil)
		f.tracking.On("Record", ctx, trackingID, domain.StatusInTransit).Return(nil)
		f.tracking.On("Announce", ctx, mock.Anything)

		_, err := f.svc.SetStatus(ctx, domain.StatusInput{ParcelID: parcelID, Status: domain.StatusInTransit, Caller: admin})

		require.NoError(t, err)
		f.riders.AssertNotCalled(t, "MarkAvailable", mock.Anything, mock.Anything)
	})

	t.Run("release failure aborts", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByID", ctx, parcelID).Return(assigned(domain.StatusPickedUp), nil)
		f.repo.On("UpdateStatus", ctx, parcelID, domain.ActiveStatuses, domain.StatusDelivered).Return(true, nil)
		f.riders.On("MarkAvailable", ctx, riderID).Return(false, errors.New("db down"))

		_, err := f.svc.SetStatus(ctx, domain.StatusInput{ParcelID: parcelID, Status: domain.StatusDelivered, Caller: rider})

		assert.ErrorIs(t, err, apperror.ErrUpstream)
		f.tracking.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name    string
		parcel  *domain.Parcel
		input   domain.StatusInput
		wantErr error
	}{
		{"already delivered", assigned(domain.StatusDelivered), domain.StatusInput{ParcelID: parcelID, Status: domain.StatusInTransit, Caller: rider}, apperror.ErrConflict},
		{"not assigned", paidParcel(domain.StatusPendingPickup), domain.StatusInput{ParcelID: parcelID, Status: domain.StatusInTransit, Caller: admin}, apperror.ErrConflict},
		{"wrong rider", assigned(domain.StatusInTransit), domain.StatusInput{ParcelID: parcelID, Status: domain.StatusDelivered, RiderID: parcelID, Caller: rider}, apperror.ErrInvalidArgument},
		{"stranger", assigned(domain.StatusInTransit), domain.StatusInput{ParcelID: parcelID, Status: domain.StatusDelivered, Caller: authdomain.Caller{Email: "stranger@example.com"}}, apperror.ErrForbidden},
		{"sender cannot report delivery", assigned(domain.StatusInTransit), domain.StatusInput{ParcelID: parcelID, Status: domain.StatusDelivered, Caller: authdomain.Caller{Email: "sender@example.com"}}, apperror.ErrForbidden},
		{"rider of another parcel", paidParcel(domain.StatusPendingPickup), domain.StatusInput{ParcelID: parcelID, Status: domain.StatusInTransit, Caller: rider}, apperror.ErrForbidden},
		{"not an update status", nil, domain.StatusInput{ParcelID: parcelID, Status: domain.StatusPendingPickup, Caller: rider}, apperror.ErrInvalidArgument},
		{"unknown parcel", nil, domain.StatusInput{ParcelID: parcelID, Status: domain.StatusInTransit, Caller: rider}, apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.parcel != nil {
				f.repo.On("FindByID", ctx, parcelID).Return(tt.parcel, nil)
			} else {
				f.repo.On("FindByID", ctx, parcelID).Return(nil, nil)
			}

			_, err := f.svc.SetStatus(ctx, tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
			f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestParcelService_DeliveriesPerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.riders.On("FindByID", ctx, riderID).Return(approvedRider(riderdomain.WorkingAvailable), nil)
	f.repo.On("DeliveryTimes", ctx, riderID).Return([]time.Time{
		time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 1, 0, 0, time.FixedZone("BST", 6*3600)),
		time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
	}, nil)

	days, err := f.svc.DeliveriesPerDay(ctx, riderID)

	require.NoError(t, err)
	assert.Equal(t, []domain.DayCount{
		{Date: "2026-03-01", Count: 2},
		{Date: "2026-03-02", Count: 2},
	}, days)

	_, err = f.svc.DeliveriesPerDay(ctx, "r-1")
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}

func TestParcelService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("unpaid", func(t *testing.T) {
		f := newFixture()
		f.repo.On("DeleteUnpaid", ctx, parcelID, "sender@example.com").Return(true, nil)
		assert.NoError(t, f.svc.Delete(ctx, parcelID, "sender@example.com"))
	})

	t.Run("paid", func(t *testing.T) {
		f := newFixture()
		f.repo.On("DeleteUnpaid", ctx, parcelID, "sender@example.com").Return(false, nil)
		f.repo.On("FindByID", ctx, parcelID).Return(paidParcel(domain.StatusPendingPickup), nil)
		assert.ErrorIs(t, f.svc.Delete(ctx, parcelID, "sender@example.com"), apperror.ErrConflict)
	})

	t.Run("someone else's parcel", func(t *testing.T) {
		f := newFixture()
		f.repo.On("DeleteUnpaid", ctx, parcelID, "thief@example.com").Return(false, nil)
		f.repo.On("FindByID", ctx, parcelID).Return(paidParcel(domain.StatusCreated), nil)
		assert.ErrorIs(t, f.svc.Delete(ctx, parcelID, "thief@example.com"), apperror.ErrNotFound)
	})
}

func TestParcelService_StatusDistribution(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("StatusCounts", ctx).Return(nil, errors.New("db down"))

	_, err := f.svc.StatusDistribution(ctx)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}
