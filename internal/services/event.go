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

type eventService struct {
	eventRepo        domain.EventRepository
	categoryRepo     domain.EventCategoryRepository
	registrationRepo domain.EventRegistrationRepository
	userRepo         domain.UserRepository
	contactRepo      domain.ExternalContactRepository
	emailService     domain.EmailService
	locker           domain.EventLocker
	tx               domain.TxManager
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewEventService creates an EventService with the given collaborators.
func NewEventService(
	eventRepo domain.EventRepository,
	categoryRepo domain.EventCategoryRepository,
	registrationRepo domain.EventRegistrationRepository,
	userRepo domain.UserRepository,
	contactRepo domain.ExternalContactRepository,
	emailService domain.EmailService,
	locker domain.EventLocker,
	tx domain.TxManager,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:        eventRepo,
		categoryRepo:     categoryRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		contactRepo:      contactRepo,
		emailService:     emailService,
		locker:           locker,
		tx:               tx,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, organizerID uuid.UUID, event *domain.Event) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.OrganizerID = organizerID
	event.Status = domain.EventDraft
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, event.CategoryID); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	cat, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("category_id", "unknown category")
		}
		return fmt.Errorf("get category: %w", err)
	}
	if !cat.IsActive {
		return domain.NewValidationError("category_id", "category is inactive")
	}
	return nil
}

func (s *eventService) UpdateEvent(ctx context.Context, actorID, eventID uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}

	oldCapacity := event.Capacity
	applyPatch(event, patch)
	now := time.Now()
	event.UpdatedAt = now

	if err := event.Validate(); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, event.CategoryID); err != nil {
			return nil, err
		}
	}
	if patch.CapacitySet && event.Capacity != nil {
		taken, err := s.registrationRepo.CountActiveByEvent(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("count seats: %w", err)
		}
		if taken > *event.Capacity {
			return nil, domain.NewValidationError("capacity", "cannot be reduced below the seats already taken")
		}
	}

	// Raising or clearing capacity frees seats, so the waitlist gets the
	// same promote-and-compact treatment a cancellation triggers, under the
	// same per-event lock.
	if patch.CapacitySet && capacityFreesSeats(oldCapacity, event.Capacity) {
		release, err := s.locker.Lock(ctx, eventID)
		if err != nil {
			return nil, err
		}
		defer release()

		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.eventRepo.Update(ctx, event); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
			if err := promoteFromWaitlist(ctx, s.registrationRepo, event, now); err != nil {
				return err
			}
			return compactWaitlist(ctx, s.registrationRepo, eventID, now)
		})
		if err != nil {
			return nil, err
		}
		return event, nil
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// capacityFreesSeats reports whether changing capacity from old to new can
// open seats for waitlisted registrations.
func capacityFreesSeats(old, new *int) bool {
	if old == nil {
		return false
	}
	return new == nil || *new > *old
}

func applyPatch(event *domain.Event, patch domain.EventPatch) {
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		event.CategoryID = *patch.CategoryID
	}
	if patch.StartTime != nil {
		event.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		event.EndTime = *patch.EndTime
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.IsPrivate != nil {
		event.IsPrivate = *patch.IsPrivate
	}
	if patch.CapacitySet {
		event.Capacity = patch.Capacity
	}
	if patch.AllowGuests != nil {
		event.AllowGuests = *patch.AllowGuests
	}
	if patch.MaxGuestsPerPerson != nil {
		event.MaxGuestsPerPerson = *patch.MaxGuestsPerPerson
	}
	if patch.RegistrationOpens != nil {
		event.RegistrationOpens = patch.RegistrationOpens
	}
	if patch.RegistrationCloses != nil {
		event.RegistrationCloses = patch.RegistrationCloses
	}
	if patch.AllowWaitlist != nil {
		event.AllowWaitlist = *patch.AllowWaitlist
	}
	if patch.CoOrganizers != nil {
		event.CoOrganizers = patch.CoOrganizers
	}
}

func (s *eventService) PublishEvent(ctx context.Context, actorID, eventID uuid.UUID) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}
	if !event.Status.CanTransitionTo(domain.EventPublished) {
		return nil, fmt.Errorf("%w: cannot publish from %s", domain.ErrInvalidStateTransition, event.Status)
	}
	// Publishing re-runs full validation so a half-filled draft cannot go live.
	if err := event.Validate(); err != nil {
		return nil, err
	}

	event.Status = domain.EventPublished
	event.UpdatedAt = time.Now()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) CancelEvent(ctx context.Context, actorID, eventID uuid.UUID) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}
	if !event.Status.CanTransitionTo(domain.EventCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel from %s", domain.ErrInvalidStateTransition, event.Status)
	}

	now := time.Now()
	var affected []*domain.EventRegistration

	// The lock keeps a racing registration from slipping in between the
	// status flip and the fan-out below.
	release, err := s.locker.Lock(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Event status and the registration fan-out must land together.
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		event.Status = domain.EventCancelled
		event.UpdatedAt = now
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}

		// Page through every registration; status updates do not change
		// membership of the unfiltered list, so pagination stays stable.
		for page := 1; ; page++ {
			regs, total, err := s.registrationRepo.ListByEventID(ctx, eventID, domain.RegistrationFilter{}, domain.PaginationParams{Page: page, PageSize: domain.MaxPageSize})
			if err != nil {
				return fmt.Errorf("list registrations: %w", err)
			}
			for _, reg := range regs {
				if reg.Status == domain.RegistrationCancelled {
					continue
				}
				reg.Status = domain.RegistrationCancelled
				reg.CancelledAt = &now
				reg.WaitlistPosition = nil
				reg.UpdatedAt = now
				if err := s.registrationRepo.Update(ctx, reg); err != nil {
					return fmt.Errorf("cancel registration %s: %w", reg.ID, err)
				}
				affected = append(affected, reg)
			}
			if page*domain.MaxPageSize >= total || len(regs) == 0 {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	s.notifyCancellation(ctx, event, affected)
	return event, nil
}

// notifyCancellation sends the event-cancelled notice to every registrant
// whose email can be resolved. Delivery is best effort; failures are logged,
// never surfaced, since the cancellation itself is already committed.
func (s *eventService) notifyCancellation(ctx context.Context, event *domain.Event, regs []*domain.EventRegistration) {
	for _, reg := range regs {
		email, name := s.resolveRecipient(ctx, reg.Registrant)
		if email == "" {
			continue
		}
		data := &domain.CancellationNoticeEmailData{
			Email:         email,
			RecipientName: name,
			EventTitle:    event.Title,
		}
		if err := s.emailService.SendCancellationNotice(ctx, data); err != nil {
			s.logger.Warn("cancellation notice failed", "event_id", event.ID, "registration_id", reg.ID, "err", err)
		}
	}
}

func (s *eventService) resolveRecipient(ctx context.Context, id domain.RegistrantIdentity) (email, name string) {
	switch id.Kind {
	case domain.IdentityUser:
		if id.UserID == nil {
			return "", ""
		}
		user, err := s.userRepo.GetByID(ctx, *id.UserID)
		if err != nil {
			return "", ""
		}
		return user.Email, user.Name
	case domain.IdentityContact:
		if id.ContactID == nil {
			return "", ""
		}
		contact, err := s.contactRepo.GetByID(ctx, *id.ContactID)
		if err != nil {
			return "", ""
		}
		return contact.Email, contact.Name
	case domain.IdentityManual:
		return id.Email, id.Name
	}
	return "", ""
}

func (s *eventService) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, filter, params.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}
