package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtyflow/crm/internal/models"
)

// Repository handles lead persistence. Every query is scoped by tenant ID.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a leads repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, tenant_id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(source, ''), status, budget, COALESCE(requirements, ''), COALESCE(priority, ''),
	assigned_to, contact_id, created_at, updated_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(&l.ID, &l.TenantID, &l.FirstName, &l.LastName, &l.Email, &l.Phone,
		&l.Source, &l.Status, &l.Budget, &l.Requirements, &l.Priority,
		&l.AssignedTo, &l.ContactID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Create inserts a new lead.
func (r *Repository) Create(ctx context.Context, l *models.Lead) error {
	const q = `INSERT INTO leads (id, tenant_id, first_name, last_name, email, phone, source, status, budget, requirements, priority, assigned_to)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, l.TenantID, l.FirstName, l.LastName, l.Email, l.Phone, l.Source,
		l.Status, l.Budget, l.Requirements, l.Priority, l.AssignedTo).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID returns a lead by ID within the tenant, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// List returns the tenant's leads, optionally filtered by status or assignee,
// newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, status string, assignedTo *uuid.UUID) ([]models.Lead, error) {
	q := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if status != "" {
		args = append(args, status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if assignedTo != nil {
		args = append(args, *assignedTo)
		q += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

// Update updates mutable lead fields.
func (r *Repository) Update(ctx context.Context, l *models.Lead) (bool, error) {
	const q = `UPDATE leads SET first_name = $1, last_name = $2, email = NULLIF($3, ''), phone = NULLIF($4, ''),
			source = NULLIF($5, ''), status = $6, budget = $7, requirements = NULLIF($8, ''),
			priority = NULLIF($9, ''), assigned_to = $10, updated_at = NOW()
		WHERE tenant_id = $11 AND id = $12`
	tag, err := r.pool.Exec(ctx, q, l.FirstName, l.LastName, l.Email, l.Phone, l.Source, l.Status,
		l.Budget, l.Requirements, l.Priority, l.AssignedTo, l.TenantID, l.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Assign sets the lead's assignee.
func (r *Repository) Assign(ctx context.Context, tenantID, id, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET assigned_to = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		userID, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkConverted marks a lead converted and links the created contact.
func (r *Repository) MarkConverted(ctx context.Context, tenantID, id, contactID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = 'converted', contact_id = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		contactID, tenantID, id)
	return err
}

// Delete removes a lead.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListStaleByTenant returns non-closed leads not updated since cutoff, grouped
// for the scheduled follow-up reminder run.
func (r *Repository) ListStaleByTenant(ctx context.Context, cutoff time.Time) (map[uuid.UUID][]models.Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads
		WHERE status IN ('new', 'contacted', 'qualified') AND updated_at < $1
		ORDER BY tenant_id, updated_at`
	rows, err := r.pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byTenant := make(map[uuid.UUID][]models.Lead)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		byTenant[l.TenantID] = append(byTenant[l.TenantID], *l)
	}
	return byTenant, rows.Err()
}
