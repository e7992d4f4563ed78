package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"zapshift/internal/core/apperror"
	"zapshift/internal/features/users/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockUserRepository is a mock implementation of ports.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, emailSearch string) ([]domain.User, error) {
	args := m.Called(ctx, emailSearch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateRoleByEmail(ctx context.Context, email string, role domain.Role) (bool, error) {
	args := m.Called(ctx, email, role)
	return args.Bool(0), args.Error(1)
}

const userID = "0b6f2a4e-3f53-4b8e-9d55-1a2b3c4d5e6f"

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates on first sign-in", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", ctx, "new@example.com").Return(nil, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com" && u.Role == domain.RoleUser
		})).Return(nil)

		user, created, err := NewUserService(repo).Register(ctx, "New@Example.com", "New", "")

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "new@example.com", user.Email)
		repo.AssertExpectations(t)
	})

	t.Run("returns existing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		existing := &domain.User{ID: userID, Email: "old@example.com", Role: domain.RoleAdmin}
		repo.On("FindByEmail", ctx, "old@example.com").Return(existing, nil)

		user, created, err := NewUserService(repo).Register(ctx, "old@example.com", "", "")

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing, user)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("concurrent registration resolves to stored user", func(t *testing.T) {
		repo := new(MockUserRepository)
		existing := &domain.User{ID: userID, Email: "race@example.com", Role: domain.RoleUser}
		repo.On("FindByEmail", ctx, "race@example.com").Return(nil, nil).Once()
		repo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
		repo.On("FindByEmail", ctx, "race@example.com").Return(existing, nil).Once()

		user, created, err := NewUserService(repo).Register(ctx, "race@example.com", "", "")

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, userID, user.ID)
	})

	t.Run("duplicate without a stored user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", ctx, "gone@example.com").Return(nil, nil).Twice()
		repo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))

		_, _, err := NewUserService(repo).Register(ctx, "gone@example.com", "", "")

		require.ErrorIs(t, err, apperror.ErrNotFound)
		assert.NotContains(t, err.Error(), "%!w")
		repo.AssertExpectations(t)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, _, err := NewUserService(new(MockUserRepository)).Register(ctx, "nope", "", "")
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	})
}

func TestUserService_IsAdmin(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	repo.On("FindByEmail", ctx, "admin@example.com").Return(&domain.User{Role: domain.RoleAdmin}, nil)
	repo.On("FindByEmail", ctx, "user@example.com").Return(&domain.User{Role: domain.RoleUser}, nil)
	repo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, nil)
	repo.On("FindByEmail", ctx, "down@example.com").Return(nil, errors.New("connection refused"))
	svc := NewUserService(repo)

	ok, err := svc.IsAdmin(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(ctx, "user@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsAdmin(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.IsAdmin(ctx, "down@example.com")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestUserService_UpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("UpdateRole", ctx, userID, domain.RoleAdmin).Return(true, nil)
		repo.On("FindByID", ctx, userID).Return(&domain.User{ID: userID, Role: domain.RoleAdmin}, nil)

		user, err := NewUserService(repo).UpdateRole(ctx, userID, domain.RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, user.Role)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("UpdateRole", ctx, userID, domain.RoleRider).Return(false, nil)

		_, err := NewUserService(repo).UpdateRole(ctx, userID, domain.RoleRider)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := NewUserService(new(MockUserRepository)).UpdateRole(ctx, "42", domain.RoleRider)
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := NewUserService(new(MockUserRepository)).UpdateRole(ctx, userID, domain.Role("roll"))
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	})
}

func TestUserService_AssignRole(t *testing.T) {
	ctx := context.Background()

	t.Run("existing account", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("UpdateRoleByEmail", ctx, "rider@example.com", domain.RoleRider).Return(true, nil)

		require.NoError(t, NewUserService(repo).AssignRole(ctx, "rider@example.com", domain.RoleRider))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates missing account", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("UpdateRoleByEmail", ctx, "rider@example.com", domain.RoleRider).Return(false, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "rider@example.com" && u.Role == domain.RoleRider
		})).Return(nil)

		require.NoError(t, NewUserService(repo).AssignRole(ctx, "rider@example.com", domain.RoleRider))
		repo.AssertExpectations(t)
	})
}
