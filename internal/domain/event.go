package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// eventTransitions lists the legal forward transitions per status. Cancelled
// and Completed are terminal. Kept as an explicit table so the legality rules
// are auditable in one place.
var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPublished, EventCancelled},
	EventPublished: {EventCancelled, EventCompleted},
	EventCancelled: {},
	EventCompleted: {},
}

// CanTransitionTo reports whether the status may move to next.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LocationType tags the location variant of an event.
type LocationType string

const (
	LocationPhysical LocationType = "physical"
	LocationVirtual  LocationType = "virtual"
	LocationHybrid   LocationType = "hybrid"
)

// Location is where an event takes place. Physical carries an address,
// Virtual a link, Hybrid both.
// swagger:model Location
type Location struct {
	Type        LocationType `json:"type"`
	Address     string       `json:"address,omitempty"`
	VirtualLink string       `json:"virtual_link,omitempty"`
}

// Validate checks that the populated fields match the location type.
func (l Location) Validate() error {
	switch l.Type {
	case LocationPhysical:
		if strings.TrimSpace(l.Address) == "" {
			return NewValidationError("location.address", "required for a physical event")
		}
	case LocationVirtual:
		if strings.TrimSpace(l.VirtualLink) == "" {
			return NewValidationError("location.virtual_link", "required for a virtual event")
		}
	case LocationHybrid:
		if strings.TrimSpace(l.Address) == "" || strings.TrimSpace(l.VirtualLink) == "" {
			return NewValidationError("location", "hybrid event requires both address and virtual link")
		}
	default:
		return NewValidationError("location.type", "must be one of physical, virtual, hybrid")
	}
	return nil
}

// Event represents an organizable gathering.
// swagger:model Event
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Location  Location  `json:"location"`

	OrganizerID  uuid.UUID   `json:"organizer_id"`
	CoOrganizers []uuid.UUID `json:"co_organizers,omitempty"`
	IsPrivate    bool        `json:"is_private"`

	// Capacity is the optional maximum number of confirmed seats, guests
	// included. Nil means unlimited.
	Capacity           *int `json:"capacity,omitempty"`
	AllowGuests        bool `json:"allow_guests"`
	MaxGuestsPerPerson int  `json:"max_guests_per_person"`

	RegistrationOpens  *time.Time `json:"registration_opens,omitempty"`
	RegistrationCloses *time.Time `json:"registration_closes,omitempty"`
	AllowWaitlist      bool       `json:"allow_waitlist"`

	Status    EventStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewEvent returns a Draft event with a fresh ID and the given fields.
func NewEvent(title, description, categoryID string, organizerID uuid.UUID, start, end time.Time, loc Location, now time.Time) *Event {
	return &Event{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		CategoryID:  categoryID,
		StartTime:   start,
		EndTime:     end,
		Location:    loc,
		OrganizerID: organizerID,
		Status:      EventDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks single-entity invariants only. Cross-entity rules (capacity
// vs. current registrations, category existence) live in the services.
func (e *Event) Validate() error {
	if e.Title == "" {
		return NewValidationError("title", "cannot be empty")
	}
	if len(e.Title) > 200 {
		return NewValidationError("title", "cannot exceed 200 characters")
	}
	if e.Description == "" {
		return NewValidationError("description", "cannot be empty")
	}
	if e.OrganizerID == uuid.Nil {
		return NewValidationError("organizer_id", "required")
	}
	if e.EndTime.Before(e.StartTime) {
		return NewValidationError("end_time", "must not be before start time")
	}
	if err := e.Location.Validate(); err != nil {
		return err
	}
	if e.Capacity != nil && *e.Capacity <= 0 {
		return NewValidationError("capacity", "must be a positive integer when set")
	}
	if e.AllowGuests && e.MaxGuestsPerPerson < 0 {
		return NewValidationError("max_guests_per_person", "cannot be negative")
	}
	if e.RegistrationOpens != nil && e.RegistrationCloses != nil &&
		e.RegistrationCloses.Before(*e.RegistrationOpens) {
		return NewValidationError("registration_closes", "must not be before registration opens")
	}
	return nil
}

// IsOrganizer reports whether userID is the organizer or a co-organizer.
func (e *Event) IsOrganizer(userID uuid.UUID) bool {
	if e.OrganizerID == userID {
		return true
	}
	for _, co := range e.CoOrganizers {
		if co == userID {
			return true
		}
	}
	return false
}

// AcceptsRegistrationsAt reports whether the event takes registrations at the
// given instant: it must be published and, when a registration window is set,
// now must fall inside [opens, closes).
func (e *Event) AcceptsRegistrationsAt(now time.Time) bool {
	if e.Status != EventPublished {
		return false
	}
	if e.RegistrationOpens != nil && now.Before(*e.RegistrationOpens) {
		return false
	}
	if e.RegistrationCloses != nil && !now.Before(*e.RegistrationCloses) {
		return false
	}
	return true
}

// EventFilter narrows event list queries. Nil fields are not applied.
type EventFilter struct {
	CategoryID    *string
	OrganizerID   *uuid.UUID
	Status        *EventStatus
	IsPrivate     *bool
	StartsAfter   *time.Time
	StartsBefore  *time.Time
	TitleContains string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	Update(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
}

// EventPatch carries the mutable event fields for UpdateEvent. Nil fields are
// left unchanged.
type EventPatch struct {
	Title              *string
	Description        *string
	CategoryID         *string
	StartTime          *time.Time
	EndTime            *time.Time
	Location           *Location
	IsPrivate          *bool
	Capacity           *int
	CapacitySet        bool // distinguishes "clear capacity" from "unchanged"
	AllowGuests        *bool
	MaxGuestsPerPerson *int
	RegistrationOpens  *time.Time
	RegistrationCloses *time.Time
	AllowWaitlist      *bool
	CoOrganizers       []uuid.UUID
}

// EventService defines event lifecycle operations.
type EventService interface {
	CreateEvent(ctx context.Context, organizerID uuid.UUID, event *Event) (*Event, error)
	UpdateEvent(ctx context.Context, actorID, eventID uuid.UUID, patch EventPatch) (*Event, error)
	PublishEvent(ctx context.Context, actorID, eventID uuid.UUID) (*Event, error)
	CancelEvent(ctx context.Context, actorID, eventID uuid.UUID) (*Event, error)
	GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
}
