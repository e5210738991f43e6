package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtyflow/crm/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password, first_name, last_name, is_active, current_tenant_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, *uuid.UUID, error) {
	var u models.User
	var current *uuid.UUID
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.IsActive, &current, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &u, current, nil
}

// GetByID returns a user by ID, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, _, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, err
}

// GetByEmail returns a user by email, or nil if not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, _, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, err
}

// GetWithCurrentTenantByEmail returns a user by email along with the
// persisted current tenant, if any. Returns nil user if not found.
func (r *Repository) GetWithCurrentTenantByEmail(ctx context.Context, email string) (*models.User, *uuid.UUID, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, firstName, lastName string) (*models.User, error) {
	const q = `INSERT INTO users (id, email, password, first_name, last_name, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, TRUE)
		RETURNING ` + userColumns
	u, _, err := scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, firstName, lastName))
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Deactivate clears the user's active flag. Users are never hard-deleted.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// ListTenantIDs returns IDs of tenants the user has an active membership in,
// oldest membership first. This ordering makes the resolver's "first tenant"
// fallback stable.
func (r *Repository) ListTenantIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tenant_id FROM user_tenants WHERE user_id = $1 AND is_active ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
