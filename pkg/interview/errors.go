package interview

import (
	"errors"
	"fmt"
)

// Error is the canonical domain error for the orchestrator. Handlers map it to
// the dashboard envelope; components match on Type via IsType.
type Error struct {
	Type    ErrorType
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes orchestrator errors.
type ErrorType string

const (
	ErrNotFound          ErrorType = "not_found"
	ErrInvalidTransition ErrorType = "invalid_transition"
	ErrDuplicateSession  ErrorType = "duplicate_session"
	ErrNotWaiting        ErrorType = "not_waiting"
	ErrProviderFailure   ErrorType = "provider_failure"
)

func notFound(callSID string) *Error {
	return &Error{Type: ErrNotFound, Message: fmt.Sprintf("session %s not found", callSID)}
}

func invalidTransition(callSID string, from, to Status) *Error {
	return &Error{
		Type:    ErrInvalidTransition,
		Message: fmt.Sprintf("session %s: cannot transition %s -> %s", callSID, from, to),
	}
}

// IsType reports whether err is (or wraps) a domain Error of the given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}
