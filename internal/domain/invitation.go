package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvitationMethod is how an invitation is (to be) delivered.
type InvitationMethod string

const (
	MethodEmail      InvitationMethod = "email"
	MethodSMS        InvitationMethod = "sms"
	MethodManual     InvitationMethod = "manual"
	MethodBulkImport InvitationMethod = "bulk_import"
)

// ParseInvitationMethod parses a method string (case insensitive).
func ParseInvitationMethod(s string) (InvitationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email", "":
		return MethodEmail, nil
	case "sms":
		return MethodSMS, nil
	case "manual":
		return MethodManual, nil
	case "bulk_import", "bulkimport":
		return MethodBulkImport, nil
	}
	return "", NewValidationError("method", "must be one of email, sms, manual, bulk_import")
}

// InvitationStatus is the delivery/response state of an invitation.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationSent      InvitationStatus = "sent"
	InvitationDelivered InvitationStatus = "delivered"
	InvitationOpened    InvitationStatus = "opened"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationCancelled InvitationStatus = "cancelled"
)

// invitationTransitions is the forward-only transition table. Any non-terminal
// status may additionally jump to Cancelled; backward moves and skips are
// rejected.
var invitationTransitions = map[InvitationStatus][]InvitationStatus{
	InvitationPending:   {InvitationSent},
	InvitationSent:      {InvitationDelivered, InvitationAccepted, InvitationDeclined},
	InvitationDelivered: {InvitationOpened, InvitationAccepted, InvitationDeclined},
	InvitationOpened:    {InvitationAccepted, InvitationDeclined},
	InvitationAccepted:  {},
	InvitationDeclined:  {},
	InvitationCancelled: {},
}

// IsTerminal reports whether the status admits no further transition.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined || s == InvitationCancelled
}

// CanTransitionTo reports whether the status may move to next. Cancellation is
// allowed from any non-terminal status.
func (s InvitationStatus) CanTransitionTo(next InvitationStatus) bool {
	if next == InvitationCancelled {
		return !s.IsTerminal()
	}
	for _, allowed := range invitationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanRespond reports whether the invitee may accept or decline: the
// invitation must have been dispatched first.
func (s InvitationStatus) CanRespond() bool {
	return s == InvitationSent || s == InvitationDelivered || s == InvitationOpened
}

// EventInvitation records that a specific person was invited to a specific
// event. Invitations are never hard-deleted by the services; cancellation is a
// status, preserving the audit trail.
// swagger:model EventInvitation
type EventInvitation struct {
	ID      uuid.UUID        `json:"id"`
	EventID uuid.UUID        `json:"event_id"`
	Target  InvitationTarget `json:"target"`

	InviterID       uuid.UUID        `json:"inviter_id"`
	Method          InvitationMethod `json:"method"`
	PersonalMessage string           `json:"personal_message,omitempty"`

	Status      InvitationStatus `json:"status"`
	SentAt      *time.Time       `json:"sent_at,omitempty"`
	OpenedAt    *time.Time       `json:"opened_at,omitempty"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`

	Token     string     `json:"-"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEventInvitation returns a Pending invitation with a fresh ID.
// The token is assigned by the invitation service.
func NewEventInvitation(eventID uuid.UUID, target InvitationTarget, inviterID uuid.UUID, method InvitationMethod, message string, now time.Time) *EventInvitation {
	return &EventInvitation{
		ID:              uuid.New(),
		EventID:         eventID,
		Target:          target,
		InviterID:       inviterID,
		Method:          method,
		PersonalMessage: message,
		Status:          InvitationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks single-entity invariants.
func (i *EventInvitation) Validate() error {
	if i.EventID == uuid.Nil {
		return NewValidationError("event_id", "required")
	}
	if i.InviterID == uuid.Nil {
		return NewValidationError("inviter_id", "required")
	}
	if err := i.Target.Validate(); err != nil {
		return err
	}
	switch i.Method {
	case MethodEmail, MethodSMS, MethodManual, MethodBulkImport:
	default:
		return NewValidationError("method", "must be one of email, sms, manual, bulk_import")
	}
	return nil
}

// TokenValidAt reports whether the token is still resolvable: the invitation
// must be non-terminal and not past its expiry.
func (i *EventInvitation) TokenValidAt(now time.Time) bool {
	if i.Status.IsTerminal() {
		return false
	}
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return false
	}
	return true
}

// EventInvitationRepository defines storage operations for invitations.
type EventInvitationRepository interface {
	Create(ctx context.Context, inv *EventInvitation) error
	Update(ctx context.Context, inv *EventInvitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*EventInvitation, error)
	GetByToken(ctx context.Context, token string) (*EventInvitation, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID, params PaginationParams) ([]*EventInvitation, int, error)
	ExistsForUser(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	ExistsForContact(ctx context.Context, eventID, contactID uuid.UUID) (bool, error)
	ExistsForEmail(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvitationDecision is the invitee's RSVP answer.
type InvitationDecision string

const (
	DecisionAccepted InvitationDecision = "accepted"
	DecisionDeclined InvitationDecision = "declined"
)

// InvitationService defines the invitation workflow. Accepting an invitation
// expresses intent only; seat allocation happens in
// RegistrationService.RegisterForEvent with SourceInvitation.
type InvitationService interface {
	InviteToEvent(ctx context.Context, inviterID, eventID uuid.UUID, target InvitationTarget, method InvitationMethod, personalMessage string) (*EventInvitation, error)
	RecordDeliveryEvent(ctx context.Context, invitationID uuid.UUID, newStatus InvitationStatus) (*EventInvitation, error)
	RespondToInvitation(ctx context.Context, token string, decision InvitationDecision) (*EventInvitation, error)
	CancelInvitation(ctx context.Context, actorID, invitationID uuid.UUID) (*EventInvitation, error)
	ListEventInvitations(ctx context.Context, actorID, eventID uuid.UUID, params PaginationParams) ([]*EventInvitation, int, error)
}
