package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a resource that does not exist or is not owned by
	// the requesting user. Safe to surface verbatim.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
)

// Stable reason codes carried by ValidationError. The HTTP layer translates
// them into user-facing messages; services never localize.
const (
	ReasonDeadlineExpired         = "deadline_expired"
	ReasonAttemptAlreadyActive    = "attempt_already_active"
	ReasonAttemptLimitReached     = "attempt_limit_reached"
	ReasonAttemptAlreadyCompleted = "attempt_already_completed"
	ReasonTimeExpired             = "time_expired"
	ReasonTaskNotInVariant        = "task_not_in_variant"
	ReasonTaskAttemptLimitReached = "task_attempt_limit_reached"
)

// ValidationError reports a failed business-rule precondition. Reason is a
// stable machine-usable code, one per rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// Validation builds a ValidationError with the given reason code.
func Validation(reason string) error {
	return &ValidationError{Reason: reason}
}

// AsValidation unwraps err into a ValidationError if it carries one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// NotFound wraps ErrNotFound with a resource label for logs.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
