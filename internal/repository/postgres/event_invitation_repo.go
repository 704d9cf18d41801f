package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type eventInvitationRepository struct {
	DB *sql.DB
}

func NewEventInvitationRepository(db *sql.DB) domain.EventInvitationRepository {
	return &eventInvitationRepository{DB: db}
}

const invitationColumns = `
	id, event_id,
	target_kind, invited_user_id, invited_contact_id, invited_email, invited_name,
	inviter_id, method, personal_message,
	status, sent_at, opened_at, responded_at,
	token, expires_at, created_at, updated_at`

func (r *eventInvitationRepository) Create(ctx context.Context, inv *domain.EventInvitation) error {
	query := `
		INSERT INTO event_invitations (
			id, event_id,
			target_kind, invited_user_id, invited_contact_id, invited_email, invited_name,
			inviter_id, method, personal_message,
			status, sent_at, opened_at, responded_at,
			token, expires_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query,
		inv.ID, inv.EventID,
		inv.Target.Kind, inv.Target.UserID, inv.Target.ContactID, nullString(inv.Target.Email), nullString(inv.Target.Name),
		inv.InviterID, inv.Method, nullString(inv.PersonalMessage),
		inv.Status, inv.SentAt, inv.OpenedAt, inv.RespondedAt,
		inv.Token, inv.ExpiresAt, inv.CreatedAt, inv.UpdatedAt,
	)
	return mapError(err)
}

func (r *eventInvitationRepository) Update(ctx context.Context, inv *domain.EventInvitation) error {
	query := `
		UPDATE event_invitations SET
			method = $2, personal_message = $3,
			status = $4, sent_at = $5, opened_at = $6, responded_at = $7,
			token = $8, expires_at = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := q(ctx, r.DB).ExecContext(ctx, query,
		inv.ID, inv.Method, nullString(inv.PersonalMessage),
		inv.Status, inv.SentAt, inv.OpenedAt, inv.RespondedAt,
		inv.Token, inv.ExpiresAt, inv.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func (r *eventInvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EventInvitation, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *eventInvitationRepository) GetByToken(ctx context.Context, token string) (*domain.EventInvitation, error) {
	return r.getBy(ctx, `token = $1`, token)
}

func (r *eventInvitationRepository) getBy(ctx context.Context, where string, arg any) (*domain.EventInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM event_invitations WHERE ` + where
	inv, err := scanInvitation(q(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return inv, nil
}

func (r *eventInvitationRepository) ListByEventID(ctx context.Context, eventID uuid.UUID, params domain.PaginationParams) ([]*domain.EventInvitation, int, error) {
	var total int
	if err := q(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM event_invitations WHERE event_id = $1`, eventID).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	params = params.Normalize()
	query := `SELECT ` + invitationColumns + ` FROM event_invitations WHERE event_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	invs := make([]*domain.EventInvitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, mapError(err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return invs, total, nil
}

func (r *eventInvitationRepository) ExistsForUser(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return r.exists(ctx, `event_id = $1 AND invited_user_id = $2`, eventID, userID)
}

func (r *eventInvitationRepository) ExistsForContact(ctx context.Context, eventID, contactID uuid.UUID) (bool, error) {
	return r.exists(ctx, `event_id = $1 AND invited_contact_id = $2`, eventID, contactID)
}

func (r *eventInvitationRepository) ExistsForEmail(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	return r.exists(ctx, `event_id = $1 AND invited_email = $2`, eventID, email)
}

func (r *eventInvitationRepository) exists(ctx context.Context, where string, args ...any) (bool, error) {
	var found bool
	query := `SELECT EXISTS (SELECT 1 FROM event_invitations WHERE ` + where + `)`
	if err := q(ctx, r.DB).QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, mapError(err)
	}
	return found, nil
}

func (r *eventInvitationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := q(ctx, r.DB).ExecContext(ctx, `DELETE FROM event_invitations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func scanInvitation(row rowScanner) (*domain.EventInvitation, error) {
	inv := &domain.EventInvitation{}
	var emailNull, nameNull, messageNull sql.NullString
	err := row.Scan(
		&inv.ID, &inv.EventID,
		&inv.Target.Kind, &inv.Target.UserID, &inv.Target.ContactID, &emailNull, &nameNull,
		&inv.InviterID, &inv.Method, &messageNull,
		&inv.Status, &inv.SentAt, &inv.OpenedAt, &inv.RespondedAt,
		&inv.Token, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Target.Email = emailNull.String
	inv.Target.Name = nameNull.String
	inv.PersonalMessage = messageNull.String
	return inv, nil
}
