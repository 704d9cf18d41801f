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

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

const eventColumns = `
	id, title, description, category_id,
	start_time, end_time,
	location_type, location_address, location_virtual_link,
	organizer_id, co_organizers, is_private,
	capacity, allow_guests, max_guests_per_person,
	registration_opens, registration_closes, allow_waitlist,
	status, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (
			id, title, description, category_id,
			start_time, end_time,
			location_type, location_address, location_virtual_link,
			organizer_id, co_organizers, is_private,
			capacity, allow_guests, max_guests_per_person,
			registration_opens, registration_closes, allow_waitlist,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query,
		e.ID, e.Title, e.Description, nullString(e.CategoryID),
		e.StartTime, e.EndTime,
		e.Location.Type, nullString(e.Location.Address), nullString(e.Location.VirtualLink),
		e.OrganizerID, pq.Array(uuidStrings(e.CoOrganizers)), e.IsPrivate,
		e.Capacity, e.AllowGuests, e.MaxGuestsPerPerson,
		e.RegistrationOpens, e.RegistrationCloses, e.AllowWaitlist,
		e.Status, e.CreatedAt, e.UpdatedAt,
	)
	return mapError(err)
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET
			title = $2, description = $3, category_id = $4,
			start_time = $5, end_time = $6,
			location_type = $7, location_address = $8, location_virtual_link = $9,
			co_organizers = $10, is_private = $11,
			capacity = $12, allow_guests = $13, max_guests_per_person = $14,
			registration_opens = $15, registration_closes = $16, allow_waitlist = $17,
			status = $18, updated_at = $19
		WHERE id = $1
	`
	res, err := q(ctx, r.DB).ExecContext(ctx, query,
		e.ID, e.Title, e.Description, nullString(e.CategoryID),
		e.StartTime, e.EndTime,
		e.Location.Type, nullString(e.Location.Address), nullString(e.Location.VirtualLink),
		pq.Array(uuidStrings(e.CoOrganizers)), e.IsPrivate,
		e.Capacity, e.AllowGuests, e.MaxGuestsPerPerson,
		e.RegistrationOpens, e.RegistrationCloses, e.AllowWaitlist,
		e.Status, e.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(q(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := q(ctx, r.DB).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.CategoryID != nil {
		where += " AND category_id = " + arg(*filter.CategoryID)
	}
	if filter.OrganizerID != nil {
		p := arg(*filter.OrganizerID)
		where += fmt.Sprintf(" AND (organizer_id = %s OR %s::text = ANY(co_organizers))", p, p)
	}
	if filter.Status != nil {
		where += " AND status = " + arg(*filter.Status)
	}
	if filter.IsPrivate != nil {
		where += " AND is_private = " + arg(*filter.IsPrivate)
	}
	if filter.StartsAfter != nil {
		where += " AND start_time >= " + arg(*filter.StartsAfter)
	}
	if filter.StartsBefore != nil {
		where += " AND start_time < " + arg(*filter.StartsBefore)
	}
	if filter.TitleContains != "" {
		where += " AND title ILIKE " + arg("%"+filter.TitleContains+"%")
	}

	var total int
	if err := q(ctx, r.DB).QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	params = params.Normalize()
	query := "SELECT " + eventColumns + " FROM events" + where +
		" ORDER BY start_time ASC, id ASC" +
		" LIMIT " + arg(params.PageSize) + " OFFSET " + arg(params.Offset())

	rows, err := q(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, mapError(err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return events, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var categoryNull, addressNull, linkNull sql.NullString
	var coOrganizers pq.StringArray
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &categoryNull,
		&e.StartTime, &e.EndTime,
		&e.Location.Type, &addressNull, &linkNull,
		&e.OrganizerID, &coOrganizers, &e.IsPrivate,
		&e.Capacity, &e.AllowGuests, &e.MaxGuestsPerPerson,
		&e.RegistrationOpens, &e.RegistrationCloses, &e.AllowWaitlist,
		&e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.CategoryID = categoryNull.String
	e.Location.Address = addressNull.String
	e.Location.VirtualLink = linkNull.String
	e.CoOrganizers, err = parseUUIDs(coOrganizers)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", s, err)
		}
		out[i] = id
	}
	return out, nil
}

func requireRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
