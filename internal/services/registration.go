package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type registrationService struct {
	eventRepo         domain.EventRepository
	registrationRepo  domain.EventRegistrationRepository
	invitationRepo    domain.EventInvitationRepository
	locker            domain.EventLocker
	tx                domain.TxManager
	allowEarlyCheckIn bool
	noShowGrace       time.Duration
	logger            *slog.Logger
	contextTimeout    time.Duration
}

// NewRegistrationService creates a RegistrationService. noShowGrace is how
// long after an event ends before registered attendees may be marked no-show.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	registrationRepo domain.EventRegistrationRepository,
	invitationRepo domain.EventInvitationRepository,
	locker domain.EventLocker,
	tx domain.TxManager,
	allowEarlyCheckIn bool,
	noShowGrace time.Duration,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:         eventRepo,
		registrationRepo:  registrationRepo,
		invitationRepo:    invitationRepo,
		locker:            locker,
		tx:                tx,
		allowEarlyCheckIn: allowEarlyCheckIn,
		noShowGrace:       noShowGrace,
		logger:            logger,
		contextTimeout:    timeout,
	}
}

func (s *registrationService) RegisterForEvent(ctx context.Context, req domain.RegisterRequest) (*domain.EventRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := req.Registrant.Validate(); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := time.Now()
	if !event.AcceptsRegistrationsAt(now) {
		return nil, domain.ErrEventNotAcceptingRegistrations
	}
	if err := checkGuestPolicy(event, req.GuestCount, req.GuestNames); err != nil {
		return nil, err
	}
	if req.InvitationID != nil {
		if err := s.checkInvitationLink(ctx, event.ID, *req.InvitationID, req.Registrant); err != nil {
			return nil, err
		}
	}

	source := req.Source
	if source == "" {
		source = domain.SourceDirect
	}

	reg := domain.NewEventRegistration(req.EventID, req.Registrant, source, now)
	reg.InvitationID = req.InvitationID
	reg.GuestCount = req.GuestCount
	reg.GuestNames = req.GuestNames
	reg.SpecialNeeds = req.SpecialNeeds

	// Capacity decisions for one event are serialized: lock, then count and
	// place inside a single transaction.
	release, err := s.locker.Lock(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Re-read under the lock: the event may have been cancelled or
		// resized while we waited for it.
		var err error
		event, err = s.eventRepo.GetByID(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if !event.AcceptsRegistrationsAt(now) {
			return domain.ErrEventNotAcceptingRegistrations
		}

		existing, err := s.registrationRepo.GetActiveByRegistrant(ctx, event.ID, req.Registrant)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if existing != nil {
			return domain.ErrAlreadyRegistered
		}

		seats := 1 + req.GuestCount
		if event.Capacity == nil {
			reg.Status = domain.RegistrationRegistered
		} else {
			taken, err := s.registrationRepo.CountActiveByEvent(ctx, event.ID)
			if err != nil {
				return fmt.Errorf("count seats: %w", err)
			}
			switch {
			case taken+seats <= *event.Capacity:
				reg.Status = domain.RegistrationRegistered
			case event.AllowWaitlist:
				pos, err := s.nextWaitlistPosition(ctx, event.ID)
				if err != nil {
					return err
				}
				reg.Status = domain.RegistrationWaitlisted
				reg.WaitlistPosition = &pos
				added := now
				reg.WaitlistAddedAt = &added
			default:
				return domain.ErrEventFull
			}
		}

		if err := reg.Validate(); err != nil {
			return err
		}
		if err := s.registrationRepo.Create(ctx, reg); err != nil {
			return fmt.Errorf("create registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// checkGuestPolicy enforces the event's guest settings. Violations are
// validation errors since they reflect bad input, not contention.
func checkGuestPolicy(event *domain.Event, guestCount int, guestNames []string) error {
	if guestCount < 0 {
		return domain.NewValidationError("guest_count", "cannot be negative")
	}
	if guestCount == 0 {
		return nil
	}
	if !event.AllowGuests {
		return domain.NewValidationError("guest_count", "event does not allow guests")
	}
	if event.MaxGuestsPerPerson > 0 && guestCount > event.MaxGuestsPerPerson {
		return domain.NewValidationError("guest_count",
			fmt.Sprintf("at most %d guests per registration", event.MaxGuestsPerPerson))
	}
	if len(guestNames) > guestCount {
		return domain.NewValidationError("guest_names", "more names than guests")
	}
	return nil
}

// checkInvitationLink verifies that a registration claiming to come from an
// invitation references an accepted invitation for this event whose target
// matches the registrant.
func (s *registrationService) checkInvitationLink(ctx context.Context, eventID, invitationID uuid.UUID, registrant domain.RegistrantIdentity) error {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("invitation_id", "unknown invitation")
		}
		return fmt.Errorf("get invitation: %w", err)
	}
	if inv.EventID != eventID {
		return domain.NewValidationError("invitation_id", "invitation is for a different event")
	}
	if inv.Target.Key() != registrant.Key() {
		return domain.NewValidationError("invitation_id", "invitation was issued to someone else")
	}
	return nil
}

// nextWaitlistPosition returns max(position)+1. Positions are dense, so this
// equals len(waitlist)+1, but reading the max tolerates a gap long enough to
// place the newcomer correctly.
func (s *registrationService) nextWaitlistPosition(ctx context.Context, eventID uuid.UUID) (int, error) {
	waitlist, err := s.registrationRepo.ListWaitlistByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("list waitlist: %w", err)
	}
	max := 0
	for _, w := range waitlist {
		if w.WaitlistPosition != nil && *w.WaitlistPosition > max {
			max = *w.WaitlistPosition
		}
	}
	return max + 1, nil
}

func (s *registrationService) CancelRegistration(ctx context.Context, actorID, registrationID uuid.UUID) (*domain.EventRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg.Status == domain.RegistrationCancelled {
		// Cancelling twice is a no-op, not an error.
		return reg, nil
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !s.canActOnRegistration(actorID, event, reg) {
		return nil, domain.ErrForbidden
	}
	if !reg.Status.CanTransitionTo(domain.RegistrationCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s registration", domain.ErrInvalidStateTransition, reg.Status)
	}

	release, err := s.locker.Lock(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		heldSeat := reg.Status.HoldsSeat()

		now := time.Now()
		reg.Status = domain.RegistrationCancelled
		reg.CancelledAt = &now
		reg.WaitlistPosition = nil
		reg.WaitlistAddedAt = nil
		reg.UpdatedAt = now
		if err := s.registrationRepo.Update(ctx, reg); err != nil {
			return fmt.Errorf("update registration: %w", err)
		}

		if heldSeat {
			if err := promoteFromWaitlist(ctx, s.registrationRepo, event, now); err != nil {
				return err
			}
		}
		return compactWaitlist(ctx, s.registrationRepo, reg.EventID, now)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// canActOnRegistration: a user registrant may act on their own registration;
// organizers and co-organizers may act on any registration of their event.
func (s *registrationService) canActOnRegistration(actorID uuid.UUID, event *domain.Event, reg *domain.EventRegistration) bool {
	if reg.Registrant.Kind == domain.IdentityUser && reg.Registrant.UserID != nil && *reg.Registrant.UserID == actorID {
		return true
	}
	return event.IsOrganizer(actorID)
}

// promoteFromWaitlist moves waitlisted registrations into confirmed seats, in
// position order, while the remaining capacity accommodates them. A large
// party at the head of the waitlist blocks promotion rather than being
// skipped. A nil capacity promotes the whole waitlist. Shared with the event
// service, which runs it when a patch frees seats.
func promoteFromWaitlist(ctx context.Context, repo domain.EventRegistrationRepository, event *domain.Event, now time.Time) error {
	waitlist, err := repo.ListWaitlistByEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("list waitlist: %w", err)
	}
	if len(waitlist) == 0 {
		return nil
	}
	sortWaitlist(waitlist)

	taken := 0
	if event.Capacity != nil {
		taken, err = repo.CountActiveByEvent(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("count seats: %w", err)
		}
	}

	for _, w := range waitlist {
		if event.Capacity != nil {
			need := 1 + w.GuestCount
			if taken+need > *event.Capacity {
				break
			}
			taken += need
		}
		w.Status = domain.RegistrationRegistered
		w.Source = domain.SourceWaitlistPromotion
		w.WaitlistPosition = nil
		w.WaitlistAddedAt = nil
		w.UpdatedAt = now
		// RegisteredAt keeps the original registration time.
		if err := repo.Update(ctx, w); err != nil {
			return fmt.Errorf("promote registration: %w", err)
		}
	}
	return nil
}

// compactWaitlist renumbers the remaining waitlist to a dense 1..N sequence
// in the prior relative order.
func compactWaitlist(ctx context.Context, repo domain.EventRegistrationRepository, eventID uuid.UUID, now time.Time) error {
	waitlist, err := repo.ListWaitlistByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list waitlist: %w", err)
	}
	sortWaitlist(waitlist)

	for i, w := range waitlist {
		want := i + 1
		if w.WaitlistPosition != nil && *w.WaitlistPosition == want {
			continue
		}
		pos := want
		w.WaitlistPosition = &pos
		w.UpdatedAt = now
		if err := repo.Update(ctx, w); err != nil {
			return fmt.Errorf("renumber waitlist: %w", err)
		}
	}
	return nil
}

func sortWaitlist(waitlist []*domain.EventRegistration) {
	sort.SliceStable(waitlist, func(i, j int) bool {
		pi, pj := waitlist[i].WaitlistPosition, waitlist[j].WaitlistPosition
		if pi == nil || pj == nil {
			return pj == nil && pi != nil
		}
		return *pi < *pj
	})
}

func (s *registrationService) CheckIn(ctx context.Context, actorID, registrationID uuid.UUID) (*domain.EventRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(actorID) {
		return nil, domain.ErrForbidden
	}
	if reg.Status == domain.RegistrationAttended {
		return nil, domain.ErrAlreadyCheckedIn
	}
	if reg.Status != domain.RegistrationRegistered {
		return nil, fmt.Errorf("%w: cannot check in a %s registration", domain.ErrInvalidStateTransition, reg.Status)
	}

	now := time.Now()
	if !s.allowEarlyCheckIn && now.Before(event.StartTime) {
		return nil, domain.ErrEventNotStarted
	}

	reg.Status = domain.RegistrationAttended
	reg.CheckedInAt = &now
	reg.UpdatedAt = now
	if err := s.registrationRepo.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return reg, nil
}

func (s *registrationService) MarkNoShows(ctx context.Context, actorID, eventID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(actorID) {
		return 0, domain.ErrForbidden
	}

	now := time.Now()
	if now.Before(event.EndTime.Add(s.noShowGrace)) {
		return 0, domain.ErrEventNotEnded
	}

	marked := 0
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Page over the unfiltered list: updating a row's status does not
		// change its membership here, so pagination stays stable.
		for page := 1; ; page++ {
			params := domain.PaginationParams{Page: page, PageSize: domain.MaxPageSize}
			regs, total, err := s.registrationRepo.ListByEventID(ctx, eventID, domain.RegistrationFilter{}, params)
			if err != nil {
				return fmt.Errorf("list registrations: %w", err)
			}
			for _, reg := range regs {
				if reg.Status != domain.RegistrationRegistered {
					continue
				}
				reg.Status = domain.RegistrationNoShow
				reg.UpdatedAt = now
				if err := s.registrationRepo.Update(ctx, reg); err != nil {
					return fmt.Errorf("mark no-show: %w", err)
				}
				marked++
			}
			if len(regs) == 0 || page*domain.MaxPageSize >= total {
				return nil
			}
		}
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

func (s *registrationService) ListEventRegistrations(ctx context.Context, actorID, eventID uuid.UUID, filter domain.RegistrationFilter, params domain.PaginationParams) ([]*domain.EventRegistration, int, error) {
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

	regs, total, err := s.registrationRepo.ListByEventID(ctx, eventID, filter, params.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []*domain.EventRegistration{}
	}
	return regs, total, nil
}
