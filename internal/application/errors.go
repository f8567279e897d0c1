package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers unknown idNumbers and departments with no user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on a duplicate idNumber at create.
	ErrConflict = errors.New("already exists")
	// ErrInvalidOrExpired is returned when a magic-link token is absent,
	// already used, or past its expiry.
	ErrInvalidOrExpired = errors.New("invalid or expired magic link token")
	// ErrNoSession is returned when no session credential was presented.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession is returned when the presented credential matches no
	// live session; the caller should clear the client-side cookie.
	ErrInvalidSession = errors.New("invalid session")
	// ErrForbidden is returned when a role-gated operation is attempted by
	// the wrong role.
	ErrForbidden = errors.New("forbidden")
	// ErrDelivery wraps a notifier failure. The token it was carrying stays
	// issued; only the delivery is reported as failed.
	ErrDelivery = errors.New("notification delivery failed")
)

// ValidationError enumerates every offending field of a rejected mutation.
// Mutations never partially apply: a validation failure means nothing was
// written.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// NewValidationError builds a ValidationError from field -> message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
