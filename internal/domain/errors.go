package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// Business-rule conflicts. These depend on current state and are never retried
// automatically; the caller must change something first.
var (
	ErrAlreadyRegistered              = errors.New("already registered for this event")
	ErrEventFull                      = errors.New("event is full")
	ErrInvalidStateTransition         = errors.New("invalid state transition")
	ErrAlreadyCheckedIn               = errors.New("registration already checked in")
	ErrEventNotAcceptingRegistrations = errors.New("event is not accepting registrations")
	ErrAlreadyInvited                 = errors.New("already invited to this event")
	ErrInvitationExpired              = errors.New("invitation token is expired or invalid")
	ErrEventNotStarted                = errors.New("event has not started yet")
	ErrEventNotEnded                  = errors.New("event has not ended yet")
)

// Storage-layer failure classes.
var (
	// ErrTransientStorage marks a timeout or connection failure, including
	// failure to acquire the per-event serialization guard in time. Callers
	// may retry with backoff; services never retry on their own.
	ErrTransientStorage = errors.New("transient storage failure")

	// ErrStorageIntegrity marks a storage constraint rejecting an operation
	// the service-level checks should have prevented (a race slipped through).
	// Surfaced to callers as a conflict, logged as a bug signal.
	ErrStorageIntegrity = errors.New("storage integrity violation")
)

// ValidationError reports a single-entity invariant violation. It is returned
// directly from constructors and Validate methods, never used for control flow
// elsewhere.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is one of the business-rule conflict
// sentinels, or a storage integrity violation surfaced as a conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrAlreadyCheckedIn) ||
		errors.Is(err, ErrEventNotAcceptingRegistrations) ||
		errors.Is(err, ErrAlreadyInvited) ||
		errors.Is(err, ErrEventNotStarted) ||
		errors.Is(err, ErrEventNotEnded) ||
		errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrStorageIntegrity)
}

// ErrAlreadyMember is returned when adding a co-organizer who already has that
// role on the event.
var ErrAlreadyMember = errors.New("already a co-organizer")
