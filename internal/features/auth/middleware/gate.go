package middleware

import (
	"fmt"
	"strings"

	"zapshift/internal/core/apperror"
	"zapshift/internal/core/logger"
	"zapshift/internal/core/server"
	"zapshift/internal/features/auth/domain"
	"zapshift/internal/features/auth/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const emailKey = "email"

// Gate rejects requests lacking a verified identity or the admin role
// before they reach a handler.
type Gate struct {
	verifier ports.IdentityVerifier
	roles    ports.RoleChecker
	log      *zap.Logger
}

// NewGate creates a new Gate.
func NewGate(verifier ports.IdentityVerifier, roles ports.RoleChecker) *Gate {
	return &Gate{
		verifier: verifier,
		roles:    roles,
		log:      logger.Named("auth"),
	}
}

// Email returns the verified email stored by RequireAuth.
func Email(c *fiber.Ctx) string {
	email, _ := c.Locals(emailKey).(string)
	return email
}

// Caller resolves the verified identity of the request and its admin role.
// It must run after RequireAuth.
func Caller(c *fiber.Ctx, roles ports.RoleChecker) (domain.Caller, error) {
	email := Email(c)
	if email == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing identity", apperror.ErrUnauthorized)
	}
	admin, err := roles.IsAdmin(c.UserContext(), email)
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{Email: email, Admin: admin}, nil
}

// ScopeEmail returns the owner filter of a listing requested for email.
// Admins may list anyone, or everyone with an empty email. Other callers
// are limited to their own records.
func ScopeEmail(c *fiber.Ctx, roles ports.RoleChecker, email string) (string, error) {
	self := Email(c)
	if self == "" {
		return "", fmt.Errorf("%w: missing identity", apperror.ErrUnauthorized)
	}
	email = strings.TrimSpace(email)
	if strings.EqualFold(email, self) {
		return self, nil
	}

	admin, err := roles.IsAdmin(c.UserContext(), self)
	if err != nil {
		return "", err
	}
	switch {
	case admin:
		return email, nil
	case email == "":
		return self, nil
	default:
		return "", fmt.Errorf("%w: cannot list records of another account", apperror.ErrForbidden)
	}
}

// RequireAuth verifies the bearer token and stores the email in c.Locals("email").
// A request already verified earlier in the chain passes through.
func (g *Gate) RequireAuth(c *fiber.Ctx) error {
	if Email(c) != "" {
		return c.Next()
	}

	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return server.Fail(c, fmt.Errorf("%w: missing bearer token", apperror.ErrUnauthorized))
	}

	email, err := g.verifier.Verify(c.UserContext(), strings.TrimSpace(token))
	if err != nil {
		g.log.Debug("Token rejected", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		return server.Fail(c, fmt.Errorf("%w: invalid token", apperror.ErrUnauthorized))
	}

	c.Locals(emailKey, email)
	return c.Next()
}

// RequireAdmin allows only callers whose stored role is admin. It must run
// after RequireAuth.
func (g *Gate) RequireAdmin(c *fiber.Ctx) error {
	email := Email(c)
	if email == "" {
		return server.Fail(c, fmt.Errorf("%w: missing identity", apperror.ErrUnauthorized))
	}

	admin, err := g.roles.IsAdmin(c.UserContext(), email)
	if err != nil {
		return server.Fail(c, err)
	}
	if !admin {
		g.log.Info("Admin access denied", zap.String("email", email), zap.String("path", c.Path()))
		return server.Fail(c, fmt.Errorf("%w: admin role required", apperror.ErrForbidden))
	}
	return c.Next()
}
