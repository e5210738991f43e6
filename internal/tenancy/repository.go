package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtyflow/crm/internal/models"
)

// Repository is the pgx-backed Store used by the gates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tenancy repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tenantColumns = `id, name, COALESCE(subdomain, ''), status, subscription_id, created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// GetTenant returns a tenant by ID, or nil if not found.
func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

// GetTenantBySubdomain returns a tenant by subdomain, or nil if not found.
func (r *Repository) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain))
}

// GetMembership returns the (user, tenant) membership row, or nil if none exists.
func (r *Repository) GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (*models.UserTenant, error) {
	const q = `SELECT id, user_id, tenant_id, role, is_active, created_at, updated_at
		FROM user_tenants WHERE user_id = $1 AND tenant_id = $2`
	var m models.UserTenant
	err := r.pool.QueryRow(ctx, q, userID, tenantID).
		Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// SetCurrentTenant records the user's active tenant for future requests.
func (r *Repository) SetCurrentTenant(ctx context.Context, userID, tenantID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET current_tenant_id = $1, updated_at = NOW() WHERE id = $2`, tenantID, userID)
	return err
}
