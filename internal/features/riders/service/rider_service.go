package service

import (
	"context"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/database"
	"zapshift/internal/core/logger"
	"zapshift/internal/features/riders/domain"
	"zapshift/internal/features/riders/ports"
	userdomain "zapshift/internal/features/users/domain"

	"go.uber.org/zap"
)

// RiderService implements ports.RiderService.
type RiderService struct {
	repo  ports.RiderRepository
	roles ports.RoleAssigner
	tx    ports.Transactor
	now   func() time.Time
	log   *zap.Logger
}

// NewRiderService creates a new RiderService.
func NewRiderService(repo ports.RiderRepository, roles ports.RoleAssigner, tx ports.Transactor) *RiderService {
	return &RiderService{
		repo:  repo,
		roles: roles,
		tx:    tx,
		now:   time.Now,
		log:   logger.Named("riders"),
	}
}

// Apply stores a pending application for email.
func (s *RiderService) Apply(ctx context.Context, email string, app domain.Application) (*domain.Rider, error) {
	rider, err := domain.NewRider(email, app, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rider); err != nil {
		if database.IsDuplicate(err) {
			return nil, apperror.Conflict("a rider application for %s already exists", rider.Email)
		}
		return nil, apperror.Upstream("create rider", err)
	}
	s.log.Info("Rider application received", zap.String("rider_id", rider.ID), zap.String("region", rider.Region))
	return rider, nil
}

// Get returns the rider with id.
func (s *RiderService) Get(ctx context.Context, id string) (*domain.Rider, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}
	rider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("find rider", err)
	}
	if rider == nil {
		return nil, apperror.NotFound("rider", id)
	}
	return rider, nil
}

// List returns riders matching filter.
func (s *RiderService) List(ctx context.Context, filter domain.Filter) ([]domain.Rider, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	riders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Upstream("list riders", err)
	}
	return riders, nil
}

// Approve accepts a pending application and promotes the rider's account
// in the same transaction. Approving an approved rider is a no-op.
func (s *RiderService) Approve(ctx context.Context, id string) (*domain.Rider, error) {
	if _, err := domain.ParseID(id); err != nil {
		return nil, err
	}

	var rider *domain.Rider
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		changed, err := s.repo.Approve(ctx, id, s.now())
		if err != nil {
			return apperror.Upstream("approve rider", err)
		}

		rider, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return apperror.Upstream("find rider", err)
		}
		if rider == nil {
			return apperror.NotFound("rider", id)
		}
		if !changed {
			return nil
		}
		return s.roles.AssignRole(ctx, rider.Email, userdomain.RoleRider)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Rider approved", zap.String("rider_id", id), zap.String("email", rider.Email))
	return rider, nil
}

// Delete removes a rider that is not carrying a parcel.
func (s *RiderService) Delete(ctx context.Context, id string) error {
	if _, err := domain.ParseID(id); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteIdle(ctx, id)
	if err != nil {
		return apperror.Upstream("delete rider", err)
	}
	if deleted {
		s.log.Info("Rider removed", zap.String("rider_id", id))
		return nil
	}

	rider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.Upstream("find rider", err)
	}
	if rider == nil {
		return apperror.NotFound("rider", id)
	}
	return apperror.Conflict("rider %s is in delivery", id)
}

var _ ports.RiderService = (*RiderService)(nil)
