package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherly/internal/domain"
)

type eventCategoryRepository struct {
	DB *sql.DB
}

func NewEventCategoryRepository(db *sql.DB) domain.EventCategoryRepository {
	return &eventCategoryRepository{DB: db}
}

func (r *eventCategoryRepository) Create(ctx context.Context, c *domain.EventCategory) error {
	query := `
		INSERT INTO event_categories (id, name, description, color_hex, icon_name, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query,
		c.ID, c.Name, nullString(c.Description), nullString(c.ColorHex), nullString(c.IconName), c.IsActive, c.CreatedAt)
	return mapError(err)
}

func (r *eventCategoryRepository) Update(ctx context.Context, c *domain.EventCategory) error {
	query := `
		UPDATE event_categories SET name = $2, description = $3, color_hex = $4, icon_name = $5, is_active = $6
		WHERE id = $1
	`
	res, err := q(ctx, r.DB).ExecContext(ctx, query,
		c.ID, c.Name, nullString(c.Description), nullString(c.ColorHex), nullString(c.IconName), c.IsActive)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func (r *eventCategoryRepository) GetByID(ctx context.Context, id string) (*domain.EventCategory, error) {
	query := `SELECT id, name, description, color_hex, icon_name, is_active, created_at FROM event_categories WHERE id = $1`
	c, err := scanCategory(q(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return c, nil
}

func (r *eventCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.EventCategory, error) {
	query := `SELECT id, name, description, color_hex, icon_name, is_active, created_at FROM event_categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC`

	rows, err := q(ctx, r.DB).QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	categories := make([]*domain.EventCategory, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, mapError(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return categories, nil
}

func scanCategory(row rowScanner) (*domain.EventCategory, error) {
	c := &domain.EventCategory{}
	var descNull, colorNull, iconNull sql.NullString
	err := row.Scan(&c.ID, &c.Name, &descNull, &colorNull, &iconNull, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = descNull.String
	c.ColorHex = colorNull.String
	c.IconName = iconNull.String
	return c, nil
}
