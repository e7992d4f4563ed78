// Package apperror holds the error taxonomy shared by every feature and
// the mapping of those errors onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when a credential is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller is authenticated but lacks the role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument is returned for malformed identifiers or payloads.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when a transition is illegal for the current state.
	ErrConflict = errors.New("conflict")
	// ErrUpstream is returned when the store or an external provider fails.
	ErrUpstream = errors.New("upstream failure")
)

// Invalid wraps ErrInvalidArgument with a caller facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a caller facing message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound naming the missing entity.
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// Upstream wraps ErrUpstream around a provider or store failure.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// HTTPStatus maps an error to the response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a caller. Upstream and unknown
// failures are collapsed so provider details never leak.
func Message(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadGateway:
		return "Upstream service unavailable"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return err.Error()
	}
}
