package domain

import (
	"context"
	"strings"
	"time"
)

// EventCategory is a lookup record grouping events (e.g. "conference",
// "workshop"). IDs are short human-chosen slugs, not UUIDs.
// swagger:model EventCategory
type EventCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ColorHex    string    `json:"color_hex,omitempty"`
	IconName    string    `json:"icon_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks single-entity invariants.
func (c *EventCategory) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return NewValidationError("id", "cannot be empty")
	}
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "cannot be empty")
	}
	return nil
}

// EventCategoryRepository defines storage operations for event categories.
type EventCategoryRepository interface {
	Create(ctx context.Context, category *EventCategory) error
	Update(ctx context.Context, category *EventCategory) error
	GetByID(ctx context.Context, id string) (*EventCategory, error)
	List(ctx context.Context, activeOnly bool) ([]*EventCategory, error)
}

// CategoryService manages the category catalog. Creating and updating
// categories is an admin operation.
type CategoryService interface {
	CreateCategory(ctx context.Context, actor *User, category *EventCategory) error
	UpdateCategory(ctx context.Context, actor *User, category *EventCategory) error
	GetCategory(ctx context.Context, id string) (*EventCategory, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*EventCategory, error)
}
