package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtyflow/crm/internal/models"
)

// Repository handles contact persistence. Every query is scoped by tenant ID.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a contacts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = `id, tenant_id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''),
	contact_type, COALESCE(source, ''), COALESCE(city, ''), COALESCE(notes, ''), assigned_to, created_at, updated_at`

func scanContact(row pgx.Row) (*models.Contact, error) {
	var ct models.Contact
	err := row.Scan(&ct.ID, &ct.TenantID, &ct.FirstName, &ct.LastName, &ct.Email, &ct.Phone,
		&ct.ContactType, &ct.Source, &ct.City, &ct.Notes, &ct.AssignedTo, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ct, nil
}

// Create inserts a new contact.
func (r *Repository) Create(ctx context.Context, ct *models.Contact) error {
	const q = `INSERT INTO contacts (id, tenant_id, first_name, last_name, email, phone, contact_type, source, city, notes, assigned_to)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, ct.TenantID, ct.FirstName, ct.LastName, ct.Email, ct.Phone,
		ct.ContactType, ct.Source, ct.City, ct.Notes, ct.AssignedTo).
		Scan(&ct.ID, &ct.CreatedAt, &ct.UpdatedAt)
}

// GetByID returns a contact by ID within the tenant, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Contact, error) {
	return scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// List returns the tenant's contacts, optionally filtered by type or a name/
// email/phone search, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, contactType, search string) ([]models.Contact, error) {
	q := `SELECT ` + contactColumns + ` FROM contacts WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if contactType != "" {
		args = append(args, contactType)
		q += fmt.Sprintf(" AND contact_type = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		q += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			len(args), len(args), len(args), len(args))
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Contact
	for rows.Next() {
		ct, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ct)
	}
	return list, rows.Err()
}

// Update updates mutable contact fields.
func (r *Repository) Update(ctx context.Context, ct *models.Contact) (bool, error) {
	const q = `UPDATE contacts SET first_name = $1, last_name = $2, email = NULLIF($3, ''), phone = NULLIF($4, ''),
			contact_type = $5, source = NULLIF($6, ''), city = NULLIF($7, ''), notes = NULLIF($8, ''),
			assigned_to = $9, updated_at = NOW()
		WHERE tenant_id = $10 AND id = $11`
	tag, err := r.pool.Exec(ctx, q, ct.FirstName, ct.LastName, ct.Email, ct.Phone,
		ct.ContactType, ct.Source, ct.City, ct.Notes, ct.AssignedTo, ct.TenantID, ct.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a contact.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
