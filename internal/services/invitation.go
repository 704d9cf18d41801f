package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type invitationService struct {
	eventRepo      domain.EventRepository
	invitationRepo domain.EventInvitationRepository
	userRepo       domain.UserRepository
	contactRepo    domain.ExternalContactRepository
	emailService   domain.EmailService
	rsvpBaseURL    string
	tokenTTL       time.Duration
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewInvitationService creates an InvitationService. tokenTTL of zero means
// tokens never expire.
func NewInvitationService(
	eventRepo domain.EventRepository,
	invitationRepo domain.EventInvitationRepository,
	userRepo domain.UserRepository,
	contactRepo domain.ExternalContactRepository,
	emailService domain.EmailService,
	rsvpBaseURL string,
	tokenTTL time.Duration,
	logger *slog.Logger,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		contactRepo:    contactRepo,
		emailService:   emailService,
		rsvpBaseURL:    rsvpBaseURL,
		tokenTTL:       tokenTTL,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *invitationService) InviteToEvent(ctx context.Context, inviterID, eventID uuid.UUID, target domain.InvitationTarget, method domain.InvitationMethod, personalMessage string) (*domain.EventInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := target.Validate(); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(inviterID) {
		return nil, domain.ErrForbidden
	}
	switch event.Status {
	case domain.EventPublished:
	case domain.EventDraft:
		// Draft invitations are an organizer privilege; co-organizers must
		// wait for publication.
		if event.OrganizerID != inviterID {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, fmt.Errorf("%w: cannot invite to a %s event", domain.ErrInvalidStateTransition, event.Status)
	}

	if err := s.checkTargetUnique(ctx, eventID, target); err != nil {
		return nil, err
	}

	now := time.Now()
	inv := domain.NewEventInvitation(eventID, target, inviterID, method, personalMessage, now)
	inv.Token = uuid.NewString()
	if s.tokenTTL > 0 {
		expires := now.Add(s.tokenTTL)
		inv.ExpiresAt = &expires
	}

	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	s.dispatch(ctx, event, inv)
	return inv, nil
}

// checkTargetUnique enforces at most one invitation per (event, target
// identity). For user and contact targets it also verifies the referent
// exists.
func (s *invitationService) checkTargetUnique(ctx context.Context, eventID uuid.UUID, target domain.InvitationTarget) error {
	switch target.Kind {
	case domain.IdentityUser:
		if _, err := s.userRepo.GetByID(ctx, *target.UserID); err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound) {
				return domain.NewValidationError("target.user_id", "unknown user")
			}
			return fmt.Errorf("get invited user: %w", err)
		}
		exists, err := s.invitationRepo.ExistsForUser(ctx, eventID, *target.UserID)
		if err != nil {
			return fmt.Errorf("check existing invitation: %w", err)
		}
		if exists {
			return domain.ErrAlreadyInvited
		}
	case domain.IdentityContact:
		if _, err := s.contactRepo.GetByID(ctx, *target.ContactID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewValidationError("target.contact_id", "unknown contact")
			}
			return fmt.Errorf("get invited contact: %w", err)
		}
		exists, err := s.invitationRepo.ExistsForContact(ctx, eventID, *target.ContactID)
		if err != nil {
			return fmt.Errorf("check existing invitation: %w", err)
		}
		if exists {
			return domain.ErrAlreadyInvited
		}
	case domain.IdentityManual:
		exists, err := s.invitationRepo.ExistsForEmail(ctx, eventID, target.Email)
		if err != nil {
			return fmt.Errorf("check existing invitation: %w", err)
		}
		if exists {
			return domain.ErrAlreadyInvited
		}
	}
	return nil
}

// dispatch attempts the initial email delivery. Success moves the invitation
// to Sent; failure leaves it Pending for a later re-send, and is only logged.
func (s *invitationService) dispatch(ctx context.Context, event *domain.Event, inv *domain.EventInvitation) {
	if inv.Method != domain.MethodEmail && inv.Method != domain.MethodBulkImport {
		return
	}
	email, name := s.resolveTarget(ctx, inv.Target)
	if email == "" {
		s.logger.Warn("invitation target has no resolvable email", "invitation_id", inv.ID)
		return
	}
	inviterName := ""
	if inviter, err := s.userRepo.GetByID(ctx, inv.InviterID); err == nil {
		inviterName = inviter.Name
	}
	data := &domain.InvitationEmailData{
		Email:           email,
		RecipientName:   name,
		InviterName:     inviterName,
		EventTitle:      event.Title,
		EventStart:      event.StartTime.Format(time.RFC1123),
		PersonalMessage: inv.PersonalMessage,
		RSVPLink:        fmt.Sprintf("%s/invitations/%s", s.rsvpBaseURL, inv.Token),
	}
	if err := s.emailService.SendInvitation(ctx, data); err != nil {
		s.logger.Warn("invitation delivery failed", "invitation_id", inv.ID, "err", err)
		return
	}

	now := time.Now()
	inv.Status = domain.InvitationSent
	inv.SentAt = &now
	inv.UpdatedAt = now
	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		s.logger.Warn("recording sent status failed", "invitation_id", inv.ID, "err", err)
	}
}

func (s *invitationService) resolveTarget(ctx context.Context, target domain.InvitationTarget) (email, name string) {
	switch target.Kind {
	case domain.IdentityUser:
		if target.UserID == nil {
			return "", ""
		}
		user, err := s.userRepo.GetByID(ctx, *target.UserID)
		if err != nil {
			return "", ""
		}
		return user.Email, user.Name
	case domain.IdentityContact:
		if target.ContactID == nil {
			return "", ""
		}
		contact, err := s.contactRepo.GetByID(ctx, *target.ContactID)
		if err != nil {
			return "", ""
		}
		return contact.Email, contact.Name
	case domain.IdentityManual:
		return target.Email, target.Name
	}
	return "", ""
}

// deliveryStatuses are the statuses an external delivery collaborator may
// report. Responses (accepted/declined) arrive through RespondToInvitation
// and cancellation through CancelInvitation.
var deliveryStatuses = map[domain.InvitationStatus]bool{
	domain.InvitationSent:      true,
	domain.InvitationDelivered: true,
	domain.InvitationOpened:    true,
}

func (s *invitationService) RecordDeliveryEvent(ctx context.Context, invitationID uuid.UUID, newStatus domain.InvitationStatus) (*domain.EventInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !deliveryStatuses[newStatus] {
		return nil, domain.NewValidationError("status", "must be one of sent, delivered, opened")
	}

	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if !inv.Status.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStateTransition, inv.Status, newStatus)
	}

	now := time.Now()
	inv.Status = newStatus
	inv.UpdatedAt = now
	switch newStatus {
	case domain.InvitationSent:
		inv.SentAt = &now
	case domain.InvitationOpened:
		inv.OpenedAt = &now
	}

	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	return inv, nil
}

func (s *invitationService) RespondToInvitation(ctx context.Context, token string, decision domain.InvitationDecision) (*domain.EventInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if decision != domain.DecisionAccepted && decision != domain.DecisionDeclined {
		return nil, domain.NewValidationError("decision", "must be accepted or declined")
	}

	inv, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown tokens and expired tokens are indistinguishable to the
			// caller; no hint about whether the invitation ever existed.
			return nil, domain.ErrInvitationExpired
		}
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}

	now := time.Now()
	if !inv.TokenValidAt(now) {
		return nil, domain.ErrInvitationExpired
	}
	if !inv.Status.CanRespond() {
		return nil, fmt.Errorf("%w: cannot respond while %s", domain.ErrInvalidStateTransition, inv.Status)
	}

	if decision == domain.DecisionAccepted {
		inv.Status = domain.InvitationAccepted
	} else {
		inv.Status = domain.InvitationDeclined
	}
	inv.RespondedAt = &now
	inv.UpdatedAt = now

	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	return inv, nil
}

func (s *invitationService) CancelInvitation(ctx context.Context, actorID, invitationID uuid.UUID) (*domain.EventInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, inv.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}
	if !inv.Status.CanTransitionTo(domain.InvitationCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s invitation", domain.ErrInvalidStateTransition, inv.Status)
	}

	now := time.Now()
	inv.Status = domain.InvitationCancelled
	inv.UpdatedAt = now

	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	return inv, nil
}

func (s *invitationService) ListEventInvitations(ctx context.Context, actorID, eventID uuid.UUID, params domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(actorID) {
		return nil, 0, domain.ErrForbidden
	}

	invs, total, err := s.invitationRepo.ListByEventID(ctx, eventID, params.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("list invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.EventInvitation{}
	}
	return invs, total, nil
}
