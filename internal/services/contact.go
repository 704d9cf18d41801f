package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type contactService struct {
	contactRepo    domain.ExternalContactRepository
	contextTimeout time.Duration
}

// NewContactService creates a ContactService.
func NewContactService(contactRepo domain.ExternalContactRepository, timeout time.Duration) domain.ContactService {
	return &contactService{contactRepo: contactRepo, contextTimeout: timeout}
}

func (s *contactService) CreateContact(ctx context.Context, actorID uuid.UUID, contact *domain.ExternalContact) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contact.ID = uuid.New()
	contact.CreatedBy = actorID
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if err := contact.Validate(); err != nil {
		return err
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (s *contactService) UpdateContact(ctx context.Context, actorID uuid.UUID, contact *domain.ExternalContact) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.contactRepo.GetByID(ctx, contact.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get contact: %w", err)
	}
	if existing.CreatedBy != actorID {
		return domain.ErrForbidden
	}
	if err := contact.Validate(); err != nil {
		return err
	}
	contact.CreatedBy = existing.CreatedBy
	contact.CreatedAt = existing.CreatedAt
	contact.UpdatedAt = time.Now()
	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (s *contactService) GetContact(ctx context.Context, actorID, contactID uuid.UUID) (*domain.ExternalContact, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if contact.CreatedBy != actorID {
		return nil, domain.ErrForbidden
	}
	return contact, nil
}

func (s *contactService) ListContacts(ctx context.Context, actorID uuid.UUID, params domain.PaginationParams) ([]*domain.ExternalContact, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contacts, total, err := s.contactRepo.ListByCreator(ctx, actorID, params.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	if contacts == nil {
		contacts = []*domain.ExternalContact{}
	}
	return contacts, total, nil
}
