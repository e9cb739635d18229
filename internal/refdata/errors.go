package refdata

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayError wraps reference-data failures with the upstream status so page
// controllers can classify them:
// - 400 is an actionable data problem, shown on the detailed-error page
// - 401/403 forces a sign-out
// - 500+ is a transient integration failure; the page stays usable in
//   degraded mode
type GatewayError struct {
	Status     int
	Op         string
	Message    string
	Underlying error
}

func (e *GatewayError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%d]: %s: %v", e.Op, e.Status, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%d]: %s", e.Op, e.Status, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Underlying
}

// NewGatewayError creates a classified gateway error.
func NewGatewayError(status int, op, message string, underlying error) *GatewayError {
	return &GatewayError{Status: status, Op: op, Message: message, Underlying: underlying}
}

// IsActionable reports whether the error is a 400-class data problem the user
// can act on.
func IsActionable(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Status == http.StatusBadRequest
}

// IsAuthFailure reports whether the error should force a sign-out.
func IsAuthFailure(err error) bool {
	var ge *GatewayError
	if !errors.As(err, &ge) {
		return false
	}
	return ge.Status == http.StatusUnauthorized || ge.Status == http.StatusForbidden
}

// IsTransient reports whether the error is a 500-class integration failure.
func IsTransient(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Status >= http.StatusInternalServerError
}

// StatusOf extracts the upstream status, defaulting to 500 for unclassified
// errors.
func StatusOf(err error) int {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Status
	}
	return http.StatusInternalServerError
}
