package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, email, name, external_auth_id, password_hash, salt, role, is_active, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, external_auth_id, password_hash, salt, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query,
		u.ID, u.Email, u.Name, nullString(u.ExternalAuthID), u.PasswordHash, u.Salt, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users SET email = $2, name = $3, external_auth_id = $4, password_hash = $5, salt = $6, role = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := q(ctx, r.DB).ExecContext(ctx, query,
		u.ID, u.Email, u.Name, nullString(u.ExternalAuthID), u.PasswordHash, u.Salt, u.Role, u.IsActive, u.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(res)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *userRepository) GetByExternalAuthID(ctx context.Context, externalAuthID string) (*domain.User, error) {
	return r.getBy(ctx, `external_auth_id = $1`, externalAuthID)
}

func (r *userRepository) getBy(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(q(ctx, r.DB).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.User, int, error) {
	var total int
	if err := q(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	params = params.Normalize()
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapError(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err)
	}
	return users, total, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var externalNull sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.Name, &externalNull, &u.PasswordHash, &u.Salt, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ExternalAuthID = externalNull.String
	return u, nil
}
