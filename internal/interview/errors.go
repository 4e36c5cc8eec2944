package interview

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input supplied by a caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned when a session is unknown or already evicted.
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

// StateError reports an operation that is illegal in the session's current state.
type StateError struct {
	SessionID string
	Op        string
	Reason    string
}

func (e *StateError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s session %q: %s", e.Op, e.SessionID, e.Reason)
}

// UpstreamError wraps a failure of an external collaborator (LLM provider,
// cache backend).
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsState reports whether err carries a StateError.
func IsState(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}
