package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/database"
	"zapshift/internal/core/logger"
	"zapshift/internal/core/metrics"
	parceldomain "zapshift/internal/features/parcels/domain"
	"zapshift/internal/features/payments/domain"
	"zapshift/internal/features/payments/ports"
	trackingdomain "zapshift/internal/features/tracking/domain"
	trackingports "zapshift/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// Result messages of callbacks that change nothing.
const (
	MessageAlreadyProcessed = "already exist"
	MessageUnpaid           = "payment not completed"
	MessageAlreadyPaid      = "parcel already paid"
)

var (
	errAlreadyProcessed = errors.New("payment already recorded")
	errNotApplied       = errors.New("parcel not in unpaid state")
)

// Options configures the checkout sessions opened by the service.
type Options struct {
	Currency   string
	SiteDomain string
}

// PaymentService opens checkout sessions and reconciles their confirmation
// callbacks exactly once per provider transaction.
type PaymentService struct {
	provider ports.PaymentProvider
	repo     ports.PaymentRepository
	parcels  ports.ParcelStore
	tracking trackingports.TrackingService
	tx       ports.Transactor
	metrics  *metrics.Metrics
	opts     Options
	now      func() time.Time
	log      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	provider ports.PaymentProvider,
	repo ports.PaymentRepository,
	parcels ports.ParcelStore,
	tracking trackingports.TrackingService,
	tx ports.Transactor,
	m *metrics.Metrics,
	opts Options,
) *PaymentService {
	opts.SiteDomain = strings.TrimRight(opts.SiteDomain, "/")
	return &PaymentService{
		provider: provider,
		repo:     repo,
		parcels:  parcels,
		tracking: tracking,
		tx:       tx,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
		log:      logger.Named("payments"),
	}
}

// CreateSession opens a hosted checkout for an unpaid parcel, charging its
// stored cost to its sender. Only the sender or an admin may open one.
func (s *PaymentService) CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	parcel, err := s.findParcel(ctx, req.ParcelID)
	if err != nil {
		return nil, err
	}
	if !req.Caller.CanActFor(parcel.SenderEmail) {
		s.log.Info("Checkout denied", zap.String("parcel_id", parcel.ID), zap.String("email", req.Caller.Email))
		return nil, fmt.Errorf("%w: parcel %s belongs to another sender", apperror.ErrForbidden, parcel.ID)
	}
	if parcel.PaymentStatus == parceldomain.PaymentPaid {
		return nil, apperror.Conflict("parcel %s is already paid", parcel.ID)
	}
	amount := parcel.CostMinorUnits()
	if amount <= 0 {
		return nil, apperror.Invalid("parcel %s has no cost to charge", parcel.ID)
	}

	session, err := s.provider.CreateSession(ctx, domain.SessionParams{
		AmountMinor:   amount,
		Currency:      s.opts.Currency,
		ProductName:   "please pay for " + parcel.ParcelName,
		CustomerEmail: parcel.SenderEmail,
		Metadata: map[string]string{
			domain.MetaParcelID:   parcel.ID,
			domain.MetaParcelName: parcel.ParcelName,
			domain.MetaTrackingID: parcel.TrackingID,
		},
		SuccessURL: s.opts.SiteDomain + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.opts.SiteDomain + "/dashboard/payment-canceld",
	})
	if err != nil {
		s.log.Error("Failed to create checkout session", zap.String("parcel_id", parcel.ID), zap.Error(err))
		return nil, apperror.Upstream("create checkout session", err)
	}

	s.log.Info("Checkout session created",
		zap.String("parcel_id", parcel.ID),
		zap.String("session_id", session.ID),
		zap.Int64("amount", amount),
	)
	return &domain.CheckoutResponse{URL: session.URL, SessionID: session.ID}, nil
}

// Reconcile applies the paid transition of the session's parcel. Repeated
// callbacks for one transaction report already processed and change nothing.
func (s *PaymentService) Reconcile(ctx context.Context, sessionID string) (*domain.ReconcileResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		s.metrics.Reconciliation(metrics.OutcomeRejected)
		return nil, apperror.Invalid("session_id is required")
	}

	session, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.metrics.Reconciliation(metrics.OutcomeError)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.log.Error("Failed to retrieve checkout session", zap.String("session_id", sessionID), zap.Error(err))
		return nil, apperror.Upstream("retrieve checkout session", err)
	}

	txID := session.TransactionID()
	existing, err := s.repo.FindByTransactionID(ctx, txID)
	if err != nil {
		s.metrics.Reconciliation(metrics.OutcomeError)
		return nil, apperror.Upstream("find payment", err)
	}
	if existing != nil {
		return s.alreadyProcessed(existing.TrackingID, txID), nil
	}

	if session.PaymentStatus != domain.ProviderStatusPaid {
		s.metrics.Reconciliation(metrics.OutcomeUnpaid)
		s.log.Info("Checkout session not paid",
			zap.String("session_id", sessionID),
			zap.String("payment_status", session.PaymentStatus),
		)
		return &domain.ReconcileResult{Success: false, Message: MessageUnpaid}, nil
	}

	parcelID := session.Metadata[domain.MetaParcelID]
	if _, err := parceldomain.ParseID(parcelID); err != nil {
		s.metrics.Reconciliation(metrics.OutcomeRejected)
		s.log.Warn("Checkout session without a valid parcel id", zap.String("session_id", sessionID))
		return nil, err
	}

	var (
		parcel  *parceldomain.Parcel
		payment *domain.Payment
		entry   *trackingdomain.Entry
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.findParcel(ctx, parcelID)
		if err != nil {
			return err
		}

		at := s.now()
		payment = domain.NewPayment(session, found, at)
		if err := s.repo.Create(ctx, payment); err != nil {
			if database.IsDuplicate(err) {
				return errAlreadyProcessed
			}
			return apperror.Upstream("record payment", err)
		}

		ok, err := s.parcels.MarkPaid(ctx, parcelID, at)
		if err != nil {
			return apperror.Upstream("mark parcel paid", err)
		}
		if !ok {
			return errNotApplied
		}

		entry = s.tracking.Record(ctx, found.TrackingID, parceldomain.StatusPendingPickup)

		parcel, err = s.findParcel(ctx, parcelID)
		return err
	})

	switch {
	case errors.Is(err, errAlreadyProcessed):
		return s.alreadyProcessed(payment.TrackingID, txID), nil
	case errors.Is(err, errNotApplied):
		s.metrics.Reconciliation(metrics.OutcomeRejected)
		s.log.Warn("Payment for a parcel that is not unpaid",
			zap.String("parcel_id", parcelID),
			zap.String("transaction_id", txID),
		)
		return &domain.ReconcileResult{Success: false, Message: MessageAlreadyPaid, TransactionID: txID}, nil
	case err != nil:
		s.metrics.Reconciliation(metrics.OutcomeError)
		return nil, err
	}

	s.tracking.Announce(ctx, entry)
	s.metrics.Transition(parceldomain.StatusPendingPickup)
	s.metrics.Reconciliation(metrics.OutcomeApplied)
	s.log.Info("Payment reconciled",
		zap.String("parcel_id", parcel.ID),
		zap.String("tracking_id", parcel.TrackingID),
		zap.String("transaction_id", txID),
		zap.Float64("amount", payment.Amount),
	)

	return &domain.ReconcileResult{
		Success:       true,
		Parcel:        parcel,
		Payment:       payment,
		TrackingID:    parcel.TrackingID,
		TransactionID: txID,
	}, nil
}

func (s *PaymentService) alreadyProcessed(trackingID, txID string) *domain.ReconcileResult {
	s.metrics.Reconciliation(metrics.OutcomeAlreadyProcessed)
	s.log.Info("Payment already processed", zap.String("transaction_id", txID))
	return &domain.ReconcileResult{
		AlreadyProcessed: true,
		Message:          MessageAlreadyProcessed,
		TrackingID:       trackingID,
		TransactionID:    txID,
	}
}

// List returns recorded payments, all of them when customerEmail is empty.
func (s *PaymentService) List(ctx context.Context, customerEmail string) ([]domain.Payment, error) {
	payments, err := s.repo.List(ctx, strings.ToLower(strings.TrimSpace(customerEmail)))
	if err != nil {
		return nil, apperror.Upstream("list payments", err)
	}
	return payments, nil
}

func (s *PaymentService) findParcel(ctx context.Context, id string) (*parceldomain.Parcel, error) {
	parcel, err := s.parcels.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("find parcel", err)
	}
	if parcel == nil {
		return nil, apperror.NotFound("parcel", id)
	}
	return parcel, nil
}
