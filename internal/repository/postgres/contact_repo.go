package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type externalContactRepository struct {
	DB *sql.DB
}

func NewExternalContactRepository(db *sql.DB) domain.ExternalContactRepository {
	return &externalContactRepository{DB: db}
}

const contactColumns = `id, email, name, phone, company_name, notes, created_by, created_at, updated_at`

func (r *externalContactRepository) Create(ctx context.Context, c *domain.ExternalContact) error {
	query := `
		INSERT INTO external_contacts (id, email, name, phone, company_name, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query,
		c.ID, c.Email, c.Name, nullString(c.Phone), nullString(c.CompanyName), nullString(c.Notes), c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	return mapError(err)
}

func (r *externalContactRepository) Update(ctx context.Context, c *domain.ExternalContact) error {
	query := `
		UPDATE external_contacts SET email = $2, name = $3, phone = $4, company_name = $5, notes = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := q(ctx, r.DB).ExecContext(ctx, query,
		c.ID, c.Email, c.Name, nullString(c.Phone), nullString(c.CompanyName), nullString(c.Notes), c.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func (r *externalContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExternalContact, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *externalContactRepository) GetByEmail(ctx context.Context, email string) (*domain.ExternalContact, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *externalContactRepository) getBy(ctx context.Context, where string, arg any) (*domain.ExternalContact, error) {
	query := `SELECT ` + contactColumns + ` FROM external_contacts WHERE ` + where
	c, err := scanContact(q(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return c, nil
}

func (r *externalContactRepository) ListByCreator(ctx context.Context, createdBy uuid.UUID, params domain.PaginationParams) ([]*domain.ExternalContact, int, error) {
	var total int
	if err := q(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM external_contacts WHERE created_by = $1`, createdBy).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	params = params.Normalize()
	query := `SELECT ` + contactColumns + ` FROM external_contacts WHERE created_by = $1 ORDER BY name ASC, id ASC LIMIT $2 OFFSET $3`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, createdBy, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	contacts := make([]*domain.ExternalContact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, mapError(err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return contacts, total, nil
}

func scanContact(row rowScanner) (*domain.ExternalContact, error) {
	c := &domain.ExternalContact{}
	var phoneNull, companyNull, notesNull sql.NullString
	err := row.Scan(&c.ID, &c.Email, &c.Name, &phoneNull, &companyNull, &notesNull, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Phone = phoneNull.String
	c.CompanyName = companyNull.String
	c.Notes = notesNull.String
	return c, nil
}
