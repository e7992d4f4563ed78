// Package authtest builds gates and tokens for handler tests.
package authtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"zapshift/internal/features/auth/adapters"
	"zapshift/internal/features/auth/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Secret signs every token issued by Token.
const Secret = "authtest-secret"

// Admins is a RoleChecker backed by a fixed set of admin emails.
type Admins []string

// IsAdmin implements ports.RoleChecker.
func (a Admins) IsAdmin(_ context.Context, email string) (bool, error) {
	for _, admin := range a {
		if strings.EqualFold(admin, email) {
			return true, nil
		}
	}
	return false, nil
}

// Gate returns a gate accepting tokens from Token, where admins hold the admin role.
func Gate(admins ...string) *middleware.Gate {
	return middleware.NewGate(adapters.NewHMACVerifier(Secret), Admins(admins))
}

// Token signs a one hour HS256 token for email.
func Token(t *testing.T, email string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(Secret))
	require.NoError(t, err)
	return tok
}

// Bearer returns the Authorization header value for email.
func Bearer(t *testing.T, email string) string {
	t.Helper()
	return "Bearer " + Token(t, email)
}
