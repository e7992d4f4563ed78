package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"zapshift/internal/core/apperror"
	"zapshift/internal/features/riders/domain"
	userdomain "zapshift/internal/features/users/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockRiderRepository is a mock implementation of ports.RiderRepository.
type MockRiderRepository struct {
	mock.Mock
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	return m.Called(ctx, rider).Error(0)
}

func (m *MockRiderRepository) FindByID(ctx context.Context, id string) (*domain.Rider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) List(ctx context.Context, filter domain.Filter) ([]domain.Rider, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) Approve(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRiderRepository) DeleteIdle(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRiderRepository) MarkInDelivery(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRiderRepository) MarkAvailable(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockRoleAssigner is a mock implementation of ports.RoleAssigner.
type MockRoleAssigner struct {
	mock.Mock
}

func (m *MockRoleAssigner) AssignRole(ctx context.Context, email string, role userdomain.Role) error {
	return m.Called(ctx, email, role).Error(0)
}

// passthroughTx runs fn without a store.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const riderID = "5d7e1c3a-8b2f-4c6d-9e0a-1b2c3d4e5f60"

func TestRiderService_Apply(t *testing.T) {
	ctx := context.Background()
	app := domain.Application{Name: "Rafi", Region: "Dhaka"}

	t.Run("success", func(t *testing.T) {
		repo := new(MockRiderRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Rider")).Return(nil)

		r, err := NewRiderService(repo, new(MockRoleAssigner), passthroughTx{}).Apply(ctx, "rider@example.com", app)

		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalPending, r.ApprovalStatus)
	})

	t.Run("duplicate application", func(t *testing.T) {
		repo := new(MockRiderRepository)
		repo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))

		_, err := NewRiderService(repo, new(MockRoleAssigner), passthroughTx{}).Apply(ctx, "rider@example.com", app)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})
}

func TestRiderService_Approve(t *testing.T) {
	ctx := context.Background()
	approved := &domain.Rider{ID: riderID, Email: "rider@example.com", ApprovalStatus: domain.ApprovalApproved}

	t.Run("promotes the account", func(t *testing.T) {
		repo := new(MockRiderRepository)
		roles := new(MockRoleAssigner)
		repo.On("Approve", ctx, riderID, mock.Anything).Return(true, nil)
		repo.On("FindByID", ctx, riderID).Return(approved, nil)
		roles.On("AssignRole", ctx, "rider@example.com", userdomain.RoleRider).Return(nil)

		r, err := NewRiderService(repo, roles, passthroughTx{}).Approve(ctx, riderID)

		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalApproved, r.ApprovalStatus)
		roles.AssertExpectations(t)
	})

	t.Run("role failure fails the approval", func(t *testing.T) {
		repo := new(MockRiderRepository)
		roles := new(MockRoleAssigner)
		repo.On("Approve", ctx, riderID, mock.Anything).Return(true, nil)
		repo.On("FindByID", ctx, riderID).Return(approved, nil)
		roles.On("AssignRole", ctx, "rider@example.com", userdomain.RoleRider).
			Return(apperror.Upstream("update user role", errors.New("down")))

		_, err := NewRiderService(repo, roles, passthroughTx{}).Approve(ctx, riderID)
		assert.ErrorIs(t, err, apperror.ErrUpstream)
	})

	t.Run("already approved", func(t *testing.T) {
		repo := new(MockRiderRepository)
		roles := new(MockRoleAssigner)
		repo.On("Approve", ctx, riderID, mock.Anything).Return(false, nil)
		repo.On("FindByID", ctx, riderID).Return(approved, nil)

		_, err := NewRiderService(repo, roles, passthroughTx{}).Approve(ctx, riderID)

		require.NoError(t, err)
		roles.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown rider", func(t *testing.T) {
		repo := new(MockRiderRepository)
		repo.On("Approve", ctx, riderID, mock.Anything).Return(false, nil)
		repo.On("FindByID", ctx, riderID).Return(nil, nil)

		_, err := NewRiderService(repo, new(MockRoleAssigner), passthroughTx{}).Approve(ctx, riderID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := NewRiderService(new(MockRiderRepository), new(MockRoleAssigner), passthroughTx{}).Approve(ctx, "abc")
		assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
	})
}

func TestRiderService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		deleted bool
		found   *domain.Rider
		wantErr error
	}{
		{name: "idle rider", deleted: true},
		{name: "in delivery", found: &domain.Rider{ID: riderID, WorkingStatus: domain.WorkingInDelivery}, wantErr: apperror.ErrConflict},
		{name: "unknown", wantErr: apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRiderRepository)
			repo.On("DeleteIdle", ctx, riderID).Return(tt.deleted, nil)
			if tt.found != nil {
				repo.On("FindByID", ctx, riderID).Return(tt.found, nil)
			} else {
				repo.On("FindByID", ctx, riderID).Return(nil, nil)
			}

			err := NewRiderService(repo, new(MockRoleAssigner), passthroughTx{}).Delete(ctx, riderID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRiderService_List_RejectsUnknownStatus(t *testing.T) {
	_, err := NewRiderService(new(MockRiderRepository), new(MockRoleAssigner), passthroughTx{}).
		List(context.Background(), domain.Filter{WorkingStatus: "sleeping"})
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)
}
