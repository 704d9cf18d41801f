package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the attendance state of a registration.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationCancelled  RegistrationStatus = "cancelled"
	RegistrationAttended   RegistrationStatus = "attended"
	RegistrationNoShow     RegistrationStatus = "no_show"
)

// registrationTransitions is the legal transition table. Cancelled, attended
// and no-show are terminal.
var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationRegistered: {RegistrationCancelled, RegistrationAttended, RegistrationNoShow},
	RegistrationWaitlisted: {RegistrationRegistered, RegistrationCancelled},
	RegistrationCancelled:  {},
	RegistrationAttended:   {},
	RegistrationNoShow:     {},
}

// CanTransitionTo reports whether the status may move to next.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsSeat reports whether the status counts against event capacity.
// Registered, attended and no-show all hold a confirmed seat.
func (s RegistrationStatus) HoldsSeat() bool {
	return s == RegistrationRegistered || s == RegistrationAttended || s == RegistrationNoShow
}

// RegistrationSource is how a registration came to exist.
type RegistrationSource string

const (
	SourceDirect            RegistrationSource = "direct"
	SourceInvitation        RegistrationSource = "invitation"
	SourceWaitlistPromotion RegistrationSource = "waitlist_promotion"
)

// SpecialNeeds carries per-registration accommodation requests.
// swagger:model SpecialNeeds
type SpecialNeeds struct {
	DietaryRestrictions string `json:"dietary_restrictions,omitempty"`
	AccessibilityNeeds  string `json:"accessibility_needs,omitempty"`
	SpecialRequests     string `json:"special_requests,omitempty"`
}

// EventRegistration is a confirmed or pending attendance record.
// swagger:model EventRegistration
type EventRegistration struct {
	ID           uuid.UUID  `json:"id"`
	EventID      uuid.UUID  `json:"event_id"`
	InvitationID *uuid.UUID `json:"invitation_id,omitempty"`

	Registrant RegistrantIdentity `json:"registrant"`

	Status RegistrationStatus `json:"status"`
	Source RegistrationSource `json:"source"`

	GuestCount int      `json:"guest_count"`
	GuestNames []string `json:"guest_names,omitempty"`

	SpecialNeeds SpecialNeeds `json:"special_needs"`

	// WaitlistPosition is set iff Status is waitlisted. Positions form a
	// dense ascending sequence 1..N per event, FIFO by registration time.
	WaitlistPosition *int       `json:"waitlist_position,omitempty"`
	WaitlistAddedAt  *time.Time `json:"waitlist_added_at,omitempty"`

	RegisteredAt time.Time  `json:"registered_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEventRegistration returns a registration with a fresh ID. Status is
// assigned by the registration service after the capacity check.
func NewEventRegistration(eventID uuid.UUID, registrant RegistrantIdentity, source RegistrationSource, now time.Time) *EventRegistration {
	return &EventRegistration{
		ID:           uuid.New(),
		EventID:      eventID,
		Registrant:   registrant,
		Source:       source,
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks single-entity invariants. The guest-count-vs-event-policy
// check lives in the service since it needs the event.
func (r *EventRegistration) Validate() error {
	if r.EventID == uuid.Nil {
		return NewValidationError("event_id", "required")
	}
	if err := r.Registrant.Validate(); err != nil {
		return err
	}
	if r.GuestCount < 0 {
		return NewValidationError("guest_count", "cannot be negative")
	}
	if len(r.GuestNames) > r.GuestCount {
		return NewValidationError("guest_names", "more names than guests")
	}
	if (r.Status == RegistrationWaitlisted) != (r.WaitlistPosition != nil) {
		return NewValidationError("waitlist_position", "set iff status is waitlisted")
	}
	if r.WaitlistPosition != nil && *r.WaitlistPosition < 1 {
		return NewValidationError("waitlist_position", "must be >= 1")
	}
	switch r.Source {
	case SourceDirect, SourceInvitation, SourceWaitlistPromotion:
	default:
		return NewValidationError("source", "must be one of direct, invitation, waitlist_promotion")
	}
	return nil
}

// RegistrationFilter narrows per-event registration list queries.
type RegistrationFilter struct {
	Status *RegistrationStatus
	Source *RegistrationSource
}

// EventRegistrationRepository defines storage operations for registrations.
// CountActiveByEvent returns the number of seats currently held: the sum of
// guest parties (1 + guest count) across non-cancelled, non-waitlisted rows.
type EventRegistrationRepository interface {
	Create(ctx context.Context, reg *EventRegistration) error
	Update(ctx context.Context, reg *EventRegistration) error
	GetByID(ctx context.Context, id uuid.UUID) (*EventRegistration, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID, filter RegistrationFilter, params PaginationParams) ([]*EventRegistration, int, error)
	GetActiveByRegistrant(ctx context.Context, eventID uuid.UUID, registrant RegistrantIdentity) (*EventRegistration, error)
	CountActiveByEvent(ctx context.Context, eventID uuid.UUID) (int, error)
	ListWaitlistByEvent(ctx context.Context, eventID uuid.UUID) ([]*EventRegistration, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegisterRequest bundles the inputs to RegisterForEvent.
type RegisterRequest struct {
	EventID      uuid.UUID
	Registrant   RegistrantIdentity
	GuestCount   int
	GuestNames   []string
	SpecialNeeds SpecialNeeds
	Source       RegistrationSource
	InvitationID *uuid.UUID
}

// RegistrationService defines the registration and capacity/waitlist engine.
type RegistrationService interface {
	RegisterForEvent(ctx context.Context, req RegisterRequest) (*EventRegistration, error)
	CancelRegistration(ctx context.Context, actorID, registrationID uuid.UUID) (*EventRegistration, error)
	CheckIn(ctx context.Context, actorID, registrationID uuid.UUID) (*EventRegistration, error)
	MarkNoShows(ctx context.Context, actorID, eventID uuid.UUID) (int, error)
	ListEventRegistrations(ctx context.Context, actorID, eventID uuid.UUID, filter RegistrationFilter, params PaginationParams) ([]*EventRegistration, int, error)
}
