package domain

import (
	"strings"

	"github.com/google/uuid"
)

// IdentityKind tags which variant of a person reference is populated.
type IdentityKind string

const (
	IdentityUser    IdentityKind = "user"
	IdentityContact IdentityKind = "contact"
	IdentityManual  IdentityKind = "manual"
)

// InvitationTarget identifies the person an invitation is addressed to.
// Exactly one variant is populated: a registered user, an external contact,
// or a raw email+name pair for one-off invites.
// swagger:model InvitationTarget
type InvitationTarget struct {
	Kind      IdentityKind `json:"kind"`
	UserID    *uuid.UUID   `json:"user_id,omitempty"`
	ContactID *uuid.UUID   `json:"contact_id,omitempty"`
	Email     string       `json:"email,omitempty"`
	Name      string       `json:"name,omitempty"`
}

// UserTarget addresses an invitation to a registered user.
func UserTarget(userID uuid.UUID) InvitationTarget {
	return InvitationTarget{Kind: IdentityUser, UserID: &userID}
}

// ContactTarget addresses an invitation to an external contact.
func ContactTarget(contactID uuid.UUID) InvitationTarget {
	return InvitationTarget{Kind: IdentityContact, ContactID: &contactID}
}

// ManualTarget addresses an invitation to a raw email+name recipient.
func ManualTarget(email, name string) InvitationTarget {
	return InvitationTarget{
		Kind:  IdentityManual,
		Email: strings.TrimSpace(strings.ToLower(email)),
		Name:  strings.TrimSpace(name),
	}
}

// Validate enforces the exactly-one-variant invariant.
func (t InvitationTarget) Validate() error {
	switch t.Kind {
	case IdentityUser:
		if t.UserID == nil || *t.UserID == uuid.Nil {
			return NewValidationError("target.user_id", "required for a user target")
		}
		if t.ContactID != nil || t.Email != "" || t.Name != "" {
			return NewValidationError("target", "user target must not carry contact or manual fields")
		}
	case IdentityContact:
		if t.ContactID == nil || *t.ContactID == uuid.Nil {
			return NewValidationError("target.contact_id", "required for a contact target")
		}
		if t.UserID != nil || t.Email != "" || t.Name != "" {
			return NewValidationError("target", "contact target must not carry user or manual fields")
		}
	case IdentityManual:
		if t.Email == "" || !strings.Contains(t.Email, "@") {
			return NewValidationError("target.email", "valid email required for a manual target")
		}
		if t.Name == "" {
			return NewValidationError("target.name", "required for a manual target")
		}
		if t.UserID != nil || t.ContactID != nil {
			return NewValidationError("target", "manual target must not carry user or contact fields")
		}
	default:
		return NewValidationError("target.kind", "must be one of user, contact, manual")
	}
	return nil
}

// Key returns a stable identity key used for per-event uniqueness checks.
// Callers must Validate first; an invalid target yields an empty key.
func (t InvitationTarget) Key() string {
	switch t.Kind {
	case IdentityUser:
		if t.UserID != nil {
			return "user:" + t.UserID.String()
		}
	case IdentityContact:
		if t.ContactID != nil {
			return "contact:" + t.ContactID.String()
		}
	case IdentityManual:
		return "email:" + t.Email
	}
	return ""
}

// RegistrantIdentity identifies the person holding a registration record.
// Same three variants as InvitationTarget; the manual variant carries the
// extra walk-up fields (phone, company).
// swagger:model RegistrantIdentity
type RegistrantIdentity struct {
	Kind      IdentityKind `json:"kind"`
	UserID    *uuid.UUID   `json:"user_id,omitempty"`
	ContactID *uuid.UUID   `json:"contact_id,omitempty"`
	Email     string       `json:"email,omitempty"`
	Name      string       `json:"name,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Company   string       `json:"company,omitempty"`
}

// UserRegistrant identifies a registered user.
func UserRegistrant(userID uuid.UUID) RegistrantIdentity {
	return RegistrantIdentity{Kind: IdentityUser, UserID: &userID}
}

// ContactRegistrant identifies an external contact.
func ContactRegistrant(contactID uuid.UUID) RegistrantIdentity {
	return RegistrantIdentity{Kind: IdentityContact, ContactID: &contactID}
}

// ManualRegistrant identifies a walk-up registrant with no account or contact
// record.
func ManualRegistrant(email, name, phone, company string) RegistrantIdentity {
	return RegistrantIdentity{
		Kind:    IdentityManual,
		Email:   strings.TrimSpace(strings.ToLower(email)),
		Name:    strings.TrimSpace(name),
		Phone:   strings.TrimSpace(phone),
		Company: strings.TrimSpace(company),
	}
}

// Validate enforces the exactly-one-variant invariant.
func (id RegistrantIdentity) Validate() error {
	switch id.Kind {
	case IdentityUser:
		if id.UserID == nil || *id.UserID == uuid.Nil {
			return NewValidationError("registrant.user_id", "required for a user registrant")
		}
		if id.ContactID != nil || id.Email != "" || id.Name != "" {
			return NewValidationError("registrant", "user registrant must not carry contact or manual fields")
		}
	case IdentityContact:
		if id.ContactID == nil || *id.ContactID == uuid.Nil {
			return NewValidationError("registrant.contact_id", "required for a contact registrant")
		}
		if id.UserID != nil || id.Email != "" || id.Name != "" {
			return NewValidationError("registrant", "contact registrant must not carry user or manual fields")
		}
	case IdentityManual:
		if id.Email == "" || !strings.Contains(id.Email, "@") {
			return NewValidationError("registrant.email", "valid email required for a manual registrant")
		}
		if id.Name == "" {
			return NewValidationError("registrant.name", "required for a manual registrant")
		}
		if id.UserID != nil || id.ContactID != nil {
			return NewValidationError("registrant", "manual registrant must not carry user or contact fields")
		}
	default:
		return NewValidationError("registrant.kind", "must be one of user, contact, manual")
	}
	return nil
}

// Key returns a stable identity key used for per-event uniqueness checks.
func (id RegistrantIdentity) Key() string {
	switch id.Kind {
	case IdentityUser:
		if id.UserID != nil {
			return "user:" + id.UserID.String()
		}
	case IdentityContact:
		if id.ContactID != nil {
			return "contact:" + id.ContactID.String()
		}
	case IdentityManual:
		return "email:" + id.Email
	}
	return ""
}
