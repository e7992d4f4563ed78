package ports

import "context"

// IdentityVerifier validates a bearer credential and yields the verified email.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RoleChecker resolves whether a verified email holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}
