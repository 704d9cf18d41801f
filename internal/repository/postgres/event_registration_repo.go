package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gatherly/internal/domain"
)

type eventRegistrationRepository struct {
	DB *sql.DB
}

func NewEventRegistrationRepository(db *sql.DB) domain.EventRegistrationRepository {
	return &eventRegistrationRepository{DB: db}
}

const registrationColumns = `
	id, event_id, invitation_id,
	registrant_kind, registrant_user_id, registrant_contact_id, registrant_email, registrant_name, registrant_phone, registrant_company,
	status, source,
	guest_count, guest_names,
	dietary_restrictions, accessibility_needs, special_requests,
	waitlist_position, waitlist_added_at,
	registered_at, cancelled_at, checked_in_at,
	created_at, updated_at`

func (r *eventRegistrationRepository) Create(ctx context.Context, reg *domain.EventRegistration) error {
	query := `
		INSERT INTO event_registrations (
			id, event_id, invitation_id,
			registrant_kind, registrant_user_id, registrant_contact_id, registrant_email, registrant_name, registrant_phone, registrant_company,
			status, source,
			guest_count, guest_names,
			dietary_restrictions, accessibility_needs, special_requests,
			waitlist_position, waitlist_added_at,
			registered_at, cancelled_at, checked_in_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query,
		reg.ID, reg.EventID, reg.InvitationID,
		reg.Registrant.Kind, reg.Registrant.UserID, reg.Registrant.ContactID,
		nullString(reg.Registrant.Email), nullString(reg.Registrant.Name),
		nullString(reg.Registrant.Phone), nullString(reg.Registrant.Company),
		reg.Status, reg.Source,
		reg.GuestCount, pq.Array(reg.GuestNames),
		nullString(reg.SpecialNeeds.DietaryRestrictions), nullString(reg.SpecialNeeds.AccessibilityNeeds), nullString(reg.SpecialNeeds.SpecialRequests),
		reg.WaitlistPosition, reg.WaitlistAddedAt,
		reg.RegisteredAt, reg.CancelledAt, reg.CheckedInAt,
		reg.CreatedAt, reg.UpdatedAt,
	)
	return mapError(err)
}

func (r *eventRegistrationRepository) Update(ctx context.Context, reg *domain.EventRegistration) error {
	query := `
		UPDATE event_registrations SET
			status = $2, source = $3,
			guest_count = $4, guest_names = $5,
			dietary_restrictions = $6, accessibility_needs = $7, special_requests = $8,
			waitlist_position = $9, waitlist_added_at = $10,
			cancelled_at = $11, checked_in_at = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := q(ctx, r.DB).ExecContext(ctx, query,
		reg.ID, reg.Status, reg.Source,
		reg.GuestCount, pq.Array(reg.GuestNames),
		nullString(reg.SpecialNeeds.DietaryRestrictions), nullString(reg.SpecialNeeds.AccessibilityNeeds), nullString(reg.SpecialNeeds.SpecialRequests),
		reg.WaitlistPosition, reg.WaitlistAddedAt,
		reg.CancelledAt, reg.CheckedInAt, reg.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func (r *eventRegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE id = $1`
	reg, err := scanRegistration(q(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return reg, nil
}

func (r *eventRegistrationRepository) ListByEventID(ctx context.Context, eventID uuid.UUID, filter domain.RegistrationFilter, params domain.PaginationParams) ([]*domain.EventRegistration, int, error) {
	args := []any{eventID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	where := ` WHERE event_id = $1`
	if filter.Status != nil {
		where += ` AND status = ` + arg(*filter.Status)
	}
	if filter.Source != nil {
		where += ` AND source = ` + arg(*filter.Source)
	}

	var total int
	if err := q(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM event_registrations`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	params = params.Normalize()
	query := `SELECT ` + registrationColumns + ` FROM event_registrations` + where +
		` ORDER BY registered_at ASC, id ASC` +
		` LIMIT ` + arg(params.PageSize) + ` OFFSET ` + arg(params.Offset())

	rows, err := q(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	regs := make([]*domain.EventRegistration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, mapError(err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return regs, total, nil
}

func (r *eventRegistrationRepository) GetActiveByRegistrant(ctx context.Context, eventID uuid.UUID, registrant domain.RegistrantIdentity) (*domain.EventRegistration, error) {
	where := `event_id = $1 AND status <> 'cancelled'`
	var arg any
	switch registrant.Kind {
	case domain.IdentityUser:
		where += ` AND registrant_user_id = $2`
		arg = registrant.UserID
	case domain.IdentityContact:
		where += ` AND registrant_contact_id = $2`
		arg = registrant.ContactID
	default:
		where += ` AND registrant_email = $2`
		arg = registrant.Email
	}

	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE ` + where
	reg, err := scanRegistration(q(ctx, r.DB).QueryRowContext(ctx, query, eventID, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return reg, nil
}

func (r *eventRegistrationRepository) CountActiveByEvent(ctx context.Context, eventID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(1 + guest_count), 0)
		FROM event_registrations
		WHERE event_id = $1 AND status IN ('registered', 'attended', 'no_show')
	`
	var seats int
	if err := q(ctx, r.DB).QueryRowContext(ctx, query, eventID).Scan(&seats); err != nil {
		return 0, mapError(err)
	}
	return seats, nil
}

func (r *eventRegistrationRepository) ListWaitlistByEvent(ctx context.Context, eventID uuid.UUID) ([]*domain.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE event_id = $1 AND status = 'waitlisted' ORDER BY waitlist_position ASC`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	regs := make([]*domain.EventRegistration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, mapError(err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return regs, nil
}

func (r *eventRegistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := q(ctx, r.DB).ExecContext(ctx, `DELETE FROM event_registrations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func scanRegistration(row rowScanner) (*domain.EventRegistration, error) {
	reg := &domain.EventRegistration{}
	var emailNull, nameNull, phoneNull, companyNull sql.NullString
	var dietaryNull, accessNull, requestsNull sql.NullString
	var guestNames pq.StringArray
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.InvitationID,
		&reg.Registrant.Kind, &reg.Registrant.UserID, &reg.Registrant.ContactID,
		&emailNull, &nameNull, &phoneNull, &companyNull,
		&reg.Status, &reg.Source,
		&reg.GuestCount, &guestNames,
		&dietaryNull, &accessNull, &requestsNull,
		&reg.WaitlistPosition, &reg.WaitlistAddedAt,
		&reg.RegisteredAt, &reg.CancelledAt, &reg.CheckedInAt,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Registrant.Email = emailNull.String
	reg.Registrant.Name = nameNull.String
	reg.Registrant.Phone = phoneNull.String
	reg.Registrant.Company = companyNull.String
	reg.SpecialNeeds.DietaryRestrictions = dietaryNull.String
	reg.SpecialNeeds.AccessibilityNeeds = accessNull.String
	reg.SpecialNeeds.SpecialRequests = requestsNull.String
	reg.GuestNames = guestNames
	return reg, nil
}
