package tenants

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtyflow/crm/internal/models"
)

// Repository handles tenant and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tenants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new tenant in trial status.
func (r *Repository) Create(ctx context.Context, name, subdomain string) (*models.Tenant, error) {
	const q = `INSERT INTO tenants (id, name, subdomain, status)
		VALUES (gen_random_uuid(), $1, NULLIF($2, ''), 'trial')
		RETURNING id, name, COALESCE(subdomain, ''), status, subscription_id, created_at, updated_at`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, name, subdomain).
		Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns a tenant by ID, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	const q = `SELECT id, name, COALESCE(subdomain, ''), status, subscription_id, created_at, updated_at
		FROM tenants WHERE id = $1`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListForUser returns tenants the user has an active membership in.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Tenant, error) {
	const q = `SELECT t.id, t.name, COALESCE(t.subdomain, ''), t.status, t.subscription_id, t.created_at, t.updated_at
		FROM tenants t
		INNER JOIN user_tenants ut ON ut.tenant_id = t.id
		WHERE ut.user_id = $1 AND ut.is_active
		ORDER BY t.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// AddMember links a user to a tenant with a role. Re-adding an existing
// member reactivates the membership with the new role.
func (r *Repository) AddMember(ctx context.Context, tenantID, userID uuid.UUID, role models.Role) error {
	const q = `INSERT INTO user_tenants (id, user_id, tenant_id, role, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, TRUE)
		ON CONFLICT (user_id, tenant_id) DO UPDATE SET role = EXCLUDED.role, is_active = TRUE, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, userID, tenantID, string(role))
	return err
}

// GetMember returns the membership row for a user in a tenant, or nil if
// none exists.
func (r *Repository) GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.UserTenant, error) {
	const q = `SELECT id, user_id, tenant_id, role, is_active
		FROM user_tenants WHERE tenant_id = $1 AND user_id = $2`
	var m models.UserTenant
	err := r.pool.QueryRow(ctx, q, tenantID, userID).
		Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// UpdateMemberRole changes a member's role.
func (r *Repository) UpdateMemberRole(ctx context.Context, tenantID, userID uuid.UUID, role models.Role) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_tenants SET role = $1, updated_at = NOW() WHERE tenant_id = $2 AND user_id = $3`,
		string(role), tenantID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeactivateMember clears a membership's active flag. Membership rows are
// never hard-deleted.
func (r *Repository) DeactivateMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_tenants SET is_active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Member is a tenant member with user details.
type Member struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	AddedAt   time.Time   `json:"added_at"`
}

// ListMembers returns members of a tenant, oldest first.
func (r *Repository) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]Member, error) {
	const q = `SELECT ut.id, ut.user_id, u.email, u.first_name, u.last_name, ut.role, ut.is_active, ut.created_at
		FROM user_tenants ut
		INNER JOIN users u ON u.id = ut.user_id
		WHERE ut.tenant_id = $1
		ORDER BY ut.created_at ASC`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.FirstName, &m.LastName, &m.Role, &m.IsActive, &m.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// UpdateStatus sets a tenant's billing status and optional subscription
// reference. Driven by billing webhooks and the scheduled automation run.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID uuid.UUID, status models.TenantStatus, subscriptionID *string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tenants SET status = $1, subscription_id = COALESCE($2, subscription_id), updated_at = NOW() WHERE id = $3`,
		string(status), subscriptionID, tenantID)
	return err
}

// GetBySubscriptionID returns the tenant holding the given subscription
// reference, or nil if none.
func (r *Repository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Tenant, error) {
	const q = `SELECT id, name, COALESCE(subdomain, ''), status, subscription_id, created_at, updated_at
		FROM tenants WHERE subscription_id = $1`
	var t models.Tenant
	err := r.pool.QueryRow(ctx, q, subscriptionID).
		Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ExpireTrialsOlderThan marks trial tenants created before cutoff as expired,
// returning the affected tenants. Used by the scheduled automation run.
func (r *Repository) ExpireTrialsOlderThan(ctx context.Context, cutoff time.Time) ([]models.Tenant, error) {
	const q = `UPDATE tenants SET status = 'expired', updated_at = NOW()
		WHERE status = 'trial' AND created_at < $1
		RETURNING id, name, COALESCE(subdomain, ''), status, subscription_id, created_at, updated_at`
	rows, err := r.pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// OwnerEmails returns email addresses of active OWNER members of a tenant.
func (r *Repository) OwnerEmails(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	const q = `SELECT u.email FROM user_tenants ut
		INNER JOIN users u ON u.id = ut.user_id
		WHERE ut.tenant_id = $1 AND ut.role = 'OWNER' AND ut.is_active AND u.is_active`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
