package service

import (
	"context"
	"errors"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/database"
	"zapshift/internal/core/logger"
	"zapshift/internal/features/users/domain"
	"zapshift/internal/features/users/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService implements ports.UserService.
type UserService struct {
	repo ports.UserRepository
	now  func() time.Time
	log  *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo ports.UserRepository) *UserService {
	return &UserService{
		repo: repo,
		now:  time.Now,
		log:  logger.Named("users"),
	}
}

// Register stores the user on first sign-in. The boolean reports whether a
// record was created; an existing record is returned unchanged.
func (s *UserService) Register(ctx context.Context, email, name, photoURL string) (*domain.User, bool, error) {
	user, err := domain.NewUser(email, name, photoURL, s.now())
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByEmail(ctx, user.Email)
	if err != nil {
		return nil, false, apperror.Upstream("find user", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if !database.IsDuplicate(err) {
			return nil, false, apperror.Upstream("create user", err)
		}
		// Lost a concurrent first sign-in.
		existing, err = s.repo.FindByEmail(ctx, user.Email)
		if err != nil {
			return nil, false, apperror.Upstream("find user", err)
		}
		if existing == nil {
			return nil, false, apperror.NotFound("user", user.Email)
		}
		return existing, false, nil
	}

	s.log.Info("User registered", zap.String("email", user.Email))
	return user, true, nil
}

// List returns users, optionally filtered by an email fragment.
func (s *UserService) List(ctx context.Context, emailSearch string) ([]domain.User, error) {
	users, err := s.repo.List(ctx, emailSearch)
	if err != nil {
		return nil, apperror.Upstream("list users", err)
	}
	return users, nil
}

// RoleOf returns the stored role of email.
func (s *UserService) RoleOf(ctx context.Context, email string) (domain.Role, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", apperror.Upstream("find user", err)
	}
	if user == nil {
		return "", apperror.NotFound("user", email)
	}
	return user.Role, nil
}

// IsAdmin reports whether email belongs to an admin. Unknown emails are not admins.
func (s *UserService) IsAdmin(ctx context.Context, email string) (bool, error) {
	role, err := s.RoleOf(ctx, email)
	switch {
	case err == nil:
		return role == domain.RoleAdmin, nil
	case errors.Is(err, apperror.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// UpdateRole sets the role of the user with id.
func (s *UserService) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.Invalid("user id %q is malformed", id)
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, apperror.Upstream("update user role", err)
	}
	if !ok {
		return nil, apperror.NotFound("user", id)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Upstream("find user", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user", id)
	}
	s.log.Info("User role updated", zap.String("user_id", id), zap.String("role", string(role)))
	return user, nil
}

// AssignRole sets the role of email, creating the account if it has never
// signed in. It joins the transaction carried by ctx.
func (s *UserService) AssignRole(ctx context.Context, email string, role domain.Role) error {
	ok, err := s.repo.UpdateRoleByEmail(ctx, email, role)
	if err != nil {
		return apperror.Upstream("update user role", err)
	}
	if ok {
		return nil
	}

	user, err := domain.NewUser(email, "", "", s.now())
	if err != nil {
		return err
	}
	user.Role = role
	if err := s.repo.Create(ctx, user); err != nil {
		return apperror.Upstream("create user", err)
	}
	return nil
}

var _ ports.UserService = (*UserService)(nil)
