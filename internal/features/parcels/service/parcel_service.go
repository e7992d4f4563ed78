package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/database"
	"zapshift/internal/core/logger"
	"zapshift/internal/core/metrics"
	"zapshift/internal/features/parcels/domain"
	"zapshift/internal/features/parcels/ports"
	riderdomain "zapshift/internal/features/riders/domain"
	trackingdomain "zapshift/internal/features/tracking/domain"
	trackingports "zapshift/internal/features/tracking/ports"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
)

// maxTrackingIDAttempts bounds the retries on a tracking id collision.
const maxTrackingIDAttempts = 5

// ParcelService coordinates the parcel lifecycle. Transitions touching a
// parcel and a rider run in one store transaction; timeline side effects are
// announced after commit.
type ParcelService struct {
	repo     ports.ParcelRepository
	riders   ports.RiderStore
	tracking trackingports.TrackingService
	tx       ports.Transactor
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func(time.Time) string
	log      *zap.Logger
}

// NewParcelService creates a new ParcelService.
func NewParcelService(
	repo ports.ParcelRepository,
	riders ports.RiderStore,
	tracking trackingports.TrackingService,
	tx ports.Transactor,
	m *metrics.Metrics,
) *ParcelService {
	return &ParcelService{
		repo:     repo,
		riders:   riders,
		tracking: tracking,
		tx:       tx,
		metrics:  m,
		now:      time.Now,
		newID:    domain.NewTrackingID,
		log:      logger.Named("parcels"),
	}
}

// Create books a parcel under a fresh tracking id, retrying on collision.
func (s *ParcelService) Create(ctx context.Context, in domain.CreateInput) (*domain.Parcel, error) {
	parcel, err := domain.NewParcel(in, s.now())
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxTrackingIDAttempts; attempt++ {
		parcel.TrackingID = s.newID(s.now())

		var entry *trackingdomain.Entry
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, parcel); err != nil {
				return err
			}
			entry = s.tracking.Record(ctx, parcel.TrackingID, domain.LabelCreated)
			return nil
		})
		if err == nil {
			s.tracking.Announce(ctx, entry)
			s.metrics.Transition(domain.StatusCreated)
			s.log.Info("Parcel created",
				zap.String("parcel_id", parcel.ID),
				zap.String("tracking_id", parcel.TrackingID),
			)
			return parcel, nil
		}
		if !database.IsDuplicate(err) {
			return nil, apperror.Upstream("create parcel", err)
		}
		s.log.Warn("Tracking id collision", zap.String("tracking_id", parcel.TrackingID), zap.Int("attempt", attempt))
	}
	return nil, apperror.Upstream("create parcel", err)
}

// Get returns the parcel with id.
func (s *ParcelService) Get(ctx context.Context, id string) (*domain.Parcel, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *ParcelService) find(ctx context.Context, id string) (*domain.Parcel, error) {
	parcel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("find parcel", err)
	}
	if parcel == nil {
		return nil, apperror.NotFound("parcel", id)
	}
	return parcel, nil
}

// List returns parcels matching filter.
func (s *ParcelService) List(ctx context.Context, filter domain.Filter) ([]domain.Parcel, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter.SenderEmail = strings.ToLower(strings.TrimSpace(filter.SenderEmail))
	parcels, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Upstream("list parcels", err)
	}
	return parcels, nil
}

// ListForRider returns the parcels assigned to riderEmail.
func (s *ParcelService) ListForRider(ctx context.Context, riderEmail string, activeOnly bool) ([]domain.Parcel, error) {
	riderEmail = strings.ToLower(strings.TrimSpace(riderEmail))
	if riderEmail == "" {
		return nil, apperror.Invalid("rider email is required")
	}
	parcels, err := s.repo.ListByRider(ctx, riderEmail, activeOnly)
	if err != nil {
		return nil, apperror.Upstream("list rider parcels", err)
	}
	return parcels, nil
}

// Delete removes an unpaid parcel booked by senderEmail.
func (s *ParcelService) Delete(ctx context.Context, id, senderEmail string) error {
	if _, err := domain.ParseID(id); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteUnpaid(ctx, id, senderEmail)
	if err != nil {
		return apperror.Upstream("delete parcel", err)
	}
	if deleted {
		s.log.Info("Parcel deleted", zap.String("parcel_id", id))
		return nil
	}

	parcel, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if parcel.SenderEmail != senderEmail {
		return apperror.NotFound("parcel", id)
	}
	return apperror.Conflict("parcel %s is already paid", id)
}

// AssignRider hands a paid parcel awaiting pickup to an approved, available
// rider. The parcel and rider updates commit together or not at all.
func (s *ParcelService) AssignRider(ctx context.Context, in domain.AssignInput) (*domain.Parcel, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		parcel *domain.Parcel
		entry  *trackingdomain.Entry
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.find(ctx, in.ParcelID)
		if err != nil {
			return err
		}
		if err := checkTrackingID(current, in.TrackingID); err != nil {
			return err
		}
		if current.PaymentStatus != domain.PaymentPaid {
			return apperror.Conflict("parcel %s is not paid", current.ID)
		}
		if current.DeliveryStatus != domain.StatusPendingPickup {
			return apperror.Conflict("parcel %s is %s, not %s", current.ID, current.DeliveryStatus, domain.StatusPendingPickup)
		}

		rider, err := s.findRider(ctx, in.RiderID)
		if err != nil {
			return err
		}
		if in.RiderEmail != "" && !strings.EqualFold(in.RiderEmail, rider.Email) {
			return apperror.Invalid("rider email does not match rider %s", rider.ID)
		}
		if !rider.CanDeliver() {
			return apperror.Conflict("rider %s is not available", rider.ID)
		}

		ref := domain.RiderRef{ID: rider.ID, Email: rider.Email, Name: rider.Name}
		if in.RiderName != "" {
			ref.Name = in.RiderName
		}
		assigned, err := s.repo.AssignRider(ctx, current.ID, ref)
		if err != nil {
			return apperror.Upstream("assign rider", err)
		}
		if !assigned {
			return apperror.Conflict("parcel %s changed concurrently", current.ID)
		}

		claimed, err := s.riders.MarkInDelivery(ctx, rider.ID)
		if err != nil {
			return apperror.Upstream("claim rider", err)
		}
		if !claimed {
			return apperror.Conflict("rider %s is no longer available", rider.ID)
		}

		entry = s.tracking.Record(ctx, current.TrackingID, domain.StatusAssigned)

		parcel, err = s.find(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.tracking.Announce(ctx, entry)
	s.metrics.Transition(domain.StatusAssigned)
	s.log.Info("Rider assigned",
		zap.String("parcel_id", parcel.ID),
		zap.String("rider_id", in.RiderID),
		zap.String("tracking_id", parcel.TrackingID),
	)
	return parcel, nil
}

// SetStatus records delivery progress reported by the assigned rider or an
// admin. Reaching the delivered state releases the rider in the same
// transaction.
func (s *ParcelService) SetStatus(ctx context.Context, in domain.StatusInput) (*domain.Parcel, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var (
		parcel *domain.Parcel
		entry  *trackingdomain.Entry
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.find(ctx, in.ParcelID)
		if err != nil {
			return err
		}
		if !current.HandledBy(in.Caller) {
			s.log.Info("Status update denied",
				zap.String("parcel_id", current.ID),
				zap.String("email", in.Caller.Email),
			)
			return fmt.Errorf("%w: only the assigned rider may update parcel %s", apperror.ErrForbidden, current.ID)
		}
		if err := checkTrackingID(current, in.TrackingID); err != nil {
			return err
		}
		if current.DeliveryStatus == domain.StatusDelivered {
			return apperror.Conflict("parcel %s is already delivered", current.ID)
		}
		if !slices.Contains(domain.ActiveStatuses, current.DeliveryStatus) || current.RiderID == nil {
			return apperror.Conflict("parcel %s has no rider assigned", current.ID)
		}
		if in.RiderID != "" && in.RiderID != *current.RiderID {
			return apperror.Invalid("rider %s is not assigned to parcel %s", in.RiderID, current.ID)
		}

		updated, err := s.repo.UpdateStatus(ctx, current.ID, domain.ActiveStatuses, in.Status)
		if err != nil {
			return apperror.Upstream("update parcel status", err)
		}
		if !updated {
			return apperror.Conflict("parcel %s changed concurrently", current.ID)
		}

		if in.Status == domain.StatusDelivered {
			released, err := s.riders.MarkAvailable(ctx, *current.RiderID)
			if err != nil {
				return apperror.Upstream("release rider", err)
			}
			if !released {
				return apperror.Conflict("rider %s is not in delivery", *current.RiderID)
			}
		}

		entry = s.tracking.Record(ctx, current.TrackingID, in.Status)

		parcel, err = s.find(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.tracking.Announce(ctx, entry)
	s.metrics.Transition(in.Status)
	s.log.Info("Parcel status updated",
		zap.String("parcel_id", parcel.ID),
		zap.String("status", in.Status),
		zap.String("tracking_id", parcel.TrackingID),
	)
	return parcel, nil
}

// DeliveriesPerDay counts the rider's deliveries per UTC calendar day, oldest day first.
func (s *ParcelService) DeliveriesPerDay(ctx context.Context, riderID string) ([]domain.DayCount, error) {
	if _, err := riderdomain.ParseID(riderID); err != nil {
		return nil, err
	}
	if _, err := s.findRider(ctx, riderID); err != nil {
		return nil, err
	}

	times, err := s.repo.DeliveryTimes(ctx, riderID)
	if err != nil {
		return nil, apperror.Upstream("load rider deliveries", err)
	}

	counts := map[time.Time]int64{}
	for _, t := range times {
		counts[now.With(t.UTC()).BeginningOfDay()]++
	}
	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	result := make([]domain.DayCount, len(days))
	for i, day := range days {
		result[i] = domain.DayCount{Date: day.Format(time.DateOnly), Count: counts[day]}
	}
	return result, nil
}

// StatusDistribution returns how many parcels are in each delivery state.
func (s *ParcelService) StatusDistribution(ctx context.Context) ([]domain.StatusCount, error) {
	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, apperror.Upstream("count parcels by status", err)
	}
	return counts, nil
}

func (s *ParcelService) findRider(ctx context.Context, id string) (*riderdomain.Rider, error) {
	rider, err := s.riders.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("find rider", err)
	}
	if rider == nil {
		return nil, apperror.NotFound("rider", id)
	}
	return rider, nil
}

func checkTrackingID(p *domain.Parcel, trackingID string) error {
	if trackingID != "" && trackingID != p.TrackingID {
		return apperror.Invalid("tracking id %s does not belong to parcel %s", trackingID, p.ID)
	}
	return nil
}

var _ ports.ParcelService = (*ParcelService)(nil)
