package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole represents an application role.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleOrganizer   UserRole = "organizer"
	RoleParticipant UserRole = "participant"
)

// ParseUserRole parses a role string (case insensitive).
func ParseUserRole(s string) (UserRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "organizer":
		return RoleOrganizer, nil
	case "participant", "":
		return RoleParticipant, nil
	}
	return "", NewValidationError("role", "must be one of admin, organizer, participant")
}

// User represents a registered user.
// swagger:model User
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	ExternalAuthID string    `json:"external_auth_id,omitempty"`
	PasswordHash   string    `json:"-"`
	Salt           string    `json:"-"`
	Role           UserRole  `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser returns an active User with a fresh ID and the given fields.
func NewUser(email, name string, role UserRole, now time.Time) *User {
	return &User{
		ID:        uuid.New(),
		Email:     strings.TrimSpace(strings.ToLower(email)),
		Name:      strings.TrimSpace(name),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks single-entity invariants.
func (u *User) Validate() error {
	if u.Email == "" {
		return NewValidationError("email", "cannot be empty")
	}
	if !strings.Contains(u.Email, "@") || !strings.Contains(u.Email, ".") {
		return NewValidationError("email", "invalid format")
	}
	if u.Name == "" {
		return NewValidationError("name", "cannot be empty")
	}
	if len(u.Name) > 100 {
		return NewValidationError("name", "cannot exceed 100 characters")
	}
	return nil
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string, role UserRole, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID uuid.UUID, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByExternalAuthID(ctx context.Context, externalAuthID string) (*User, error)
	List(ctx context.Context, params PaginationParams) ([]*User, int, error)
}

// UserService defines user profile and authentication operations.
type UserService interface {
	SignUp(ctx context.Context, email, password, name string, role UserRole) (*User, error)
	LogIn(ctx context.Context, email, password string) (token string, user *User, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, params PaginationParams) ([]*User, int, error)
}
