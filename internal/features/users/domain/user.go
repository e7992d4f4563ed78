package domain

import (
	"net/mail"
	"strings"
	"time"

	"zapshift/internal/core/apperror"

	"github.com/google/uuid"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleRider Role = "rider"
	RoleAdmin Role = "admin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleRider, RoleAdmin:
		return r, nil
	default:
		return "", apperror.Invalid("role must be one of user, rider, admin")
	}
}

// User is a registered account, keyed by its verified email.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PhotoURL  string    `json:"photoURL"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeEmail lower-cases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.Invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperror.Invalid("email %q is malformed", email)
	}
	return email, nil
}

// NewUser creates a user with the default role.
func NewUser(email, name, photoURL string, now time.Time) (*User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		PhotoURL:  strings.TrimSpace(photoURL),
		Role:      RoleUser,
		CreatedAt: now.UTC(),
	}, nil
}
