package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zapshift/internal/core/database"
	"zapshift/internal/features/users/domain"

	"gorm.io/gorm"
)

type userRecord struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	Email     string    `gorm:"not null;uniqueIndex"`
	Name      string    `gorm:"not null"`
	PhotoURL  string    `gorm:"column:photo_url;not null"`
	Role      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

func (r userRecord) toDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		PhotoURL:  r.PhotoURL,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

// GormUserRepository implements ports.UserRepository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts user. A taken email surfaces as gorm.ErrDuplicatedKey.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	rec := userRecord{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		PhotoURL:  user.PhotoURL,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if err := database.Conn(ctx, r.db).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail returns nil, nil when no user has email.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByID returns nil, nil when id is unknown.
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var rec userRecord
	err := database.Conn(ctx, r.db).Where(query, arg).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	u := rec.toDomain()
	return &u, nil
}

// List returns users newest first, optionally filtered by an email substring.
func (r *GormUserRepository) List(ctx context.Context, emailSearch string) ([]domain.User, error) {
	q := database.Conn(ctx, r.db).Order("created_at DESC")
	if s := strings.ToLower(strings.TrimSpace(emailSearch)); s != "" {
		q = q.Where("email LIKE ?", "%"+s+"%")
	}

	var recs []userRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, len(recs))
	for i, rec := range recs {
		users[i] = rec.toDomain()
	}
	return users, nil
}

// UpdateRole reports whether a user with id existed.
func (r *GormUserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (bool, error) {
	return r.updateRole(ctx, "id = ?", id, role)
}

// UpdateRoleByEmail reports whether a user with email existed.
func (r *GormUserRepository) UpdateRoleByEmail(ctx context.Context, email string, role domain.Role) (bool, error) {
	return r.updateRole(ctx, "email = ?", email, role)
}

func (r *GormUserRepository) updateRole(ctx context.Context, query string, arg any, role domain.Role) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&userRecord{}).Where(query, arg).Update("role", string(role))
	if res.Error != nil {
		return false, fmt.Errorf("failed to update user role: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
