package domain

import "strings"

// Caller is the verified identity behind a request.
type Caller struct {
	Email string
	Admin bool
}

// Is reports whether the caller signed in as email.
func (c Caller) Is(email string) bool {
	return c.Email != "" && strings.EqualFold(c.Email, strings.TrimSpace(email))
}

// CanActFor reports whether the caller owns records of email or is an admin.
func (c Caller) CanActFor(email string) bool {
	return c.Admin || c.Is(email)
}
