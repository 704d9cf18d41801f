package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExternalContact is a person tracked outside the user table: someone who can
// be invited to events without holding an account.
// swagger:model ExternalContact
type ExternalContact struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks single-entity invariants.
func (c *ExternalContact) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return NewValidationError("email", "cannot be empty")
	}
	if !strings.Contains(c.Email, "@") {
		return NewValidationError("email", "invalid format")
	}
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "cannot be empty")
	}
	return nil
}

// ExternalContactRepository defines storage operations for external contacts.
type ExternalContactRepository interface {
	Create(ctx context.Context, contact *ExternalContact) error
	Update(ctx context.Context, contact *ExternalContact) error
	GetByID(ctx context.Context, id uuid.UUID) (*ExternalContact, error)
	GetByEmail(ctx context.Context, email string) (*ExternalContact, error)
	ListByCreator(ctx context.Context, createdBy uuid.UUID, params PaginationParams) ([]*ExternalContact, int, error)
}

// ContactService manages a user's external contact book. Contacts are scoped
// to their creator.
type ContactService interface {
	CreateContact(ctx context.Context, actorID uuid.UUID, contact *ExternalContact) error
	UpdateContact(ctx context.Context, actorID uuid.UUID, contact *ExternalContact) error
	GetContact(ctx context.Context, actorID, contactID uuid.UUID) (*ExternalContact, error)
	ListContacts(ctx context.Context, actorID uuid.UUID, params PaginationParams) ([]*ExternalContact, int, error)
}
