package properties

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtyflow/crm/internal/models"
)

// Repository handles property persistence. Every query is scoped by tenant ID.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a properties repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const propertyColumns = `id, tenant_id, title, COALESCE(description, ''), COALESCE(address, ''), COALESCE(city, ''),
	COALESCE(state, ''), COALESCE(pincode, ''), property_type, listing_type, price, rent_price, area,
	bedrooms, bathrooms, parking, status, amenities, created_by, created_at, updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(&p.ID, &p.TenantID, &p.Title, &p.Description, &p.Address, &p.City,
		&p.State, &p.Pincode, &p.PropertyType, &p.ListingType, &p.Price, &p.RentPrice, &p.Area,
		&p.Bedrooms, &p.Bathrooms, &p.Parking, &p.Status, &p.Amenities, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new property.
func (r *Repository) Create(ctx context.Context, p *models.Property) error {
	const q = `INSERT INTO properties (id, tenant_id, title, description, address, city, state, pincode,
			property_type, listing_type, price, rent_price, area, bedrooms, bathrooms, parking, status, amenities, created_by)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
			$8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	return r.pool.QueryRow(ctx, q, p.TenantID, p.Title, p.Description, p.Address, p.City, p.State, p.Pincode,
		p.PropertyType, p.ListingType, p.Price, p.RentPrice, p.Area, p.Bedrooms, p.Bathrooms, p.Parking,
		p.Status, p.Amenities, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a property by ID within the tenant, or nil if not found.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Property, error) {
	return scanProperty(r.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// ListFilter narrows List results.
type ListFilter struct {
	Status       string
	PropertyType string
	Search       string // matches title, address, city
}

// List returns the tenant's properties, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) ([]models.Property, error) {
	q := `SELECT ` + propertyColumns + ` FROM properties WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.PropertyType != "" {
		args = append(args, f.PropertyType)
		q += fmt.Sprintf(" AND property_type = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		q += fmt.Sprintf(" AND (title ILIKE $%d OR address ILIKE $%d OR city ILIKE $%d)", len(args), len(args), len(args))
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Update updates mutable property fields.
func (r *Repository) Update(ctx context.Context, p *models.Property) (bool, error) {
	const q = `UPDATE properties SET title = $1, description = NULLIF($2, ''), address = NULLIF($3, ''),
			city = NULLIF($4, ''), state = NULLIF($5, ''), pincode = NULLIF($6, ''), property_type = $7,
			listing_type = $8, price = $9, rent_price = $10, area = $11, bedrooms = $12, bathrooms = $13,
			parking = $14, amenities = $15, updated_at = NOW()
		WHERE tenant_id = $16 AND id = $17`
	tag, err := r.pool.Exec(ctx, q, p.Title, p.Description, p.Address, p.City, p.State, p.Pincode,
		p.PropertyType, p.ListingType, p.Price, p.RentPrice, p.Area, p.Bedrooms, p.Bathrooms, p.Parking,
		p.Amenities, p.TenantID, p.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus transitions a property's status.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET status = $1, updated_at = NOW() WHERE tenant_id = $2 AND id = $3`,
		status, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a property.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
