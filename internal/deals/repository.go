package deals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realtyflow/crm/internal/models"
)

// Repository handles pipeline, stage, and deal persistence. Every query is
// scoped by tenant ID.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a deals repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// DefaultStages are seeded into a tenant's first pipeline at signup.
var DefaultStages = []struct {
	Name  string
	Color string
}{
	{"New", "#6b7280"},
	{"Site Visit", "#8b5cf6"},
	{"Negotiation", "#3b82f6"},
	{"Token", "#f59e0b"},
	{"Agreement", "#ec4899"},
	{"Closed", "#10b981"},
}

// CreatePipeline inserts a pipeline.
func (r *Repository) CreatePipeline(ctx context.Context, p *models.Pipeline) error {
	const q = `INSERT INTO pipelines (id, tenant_id, name, description, is_active)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3, ''), TRUE)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.TenantID, p.Name, p.Description).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// SeedDefaultPipeline creates the Sales pipeline with default stages for a
// new tenant.
func (r *Repository) SeedDefaultPipeline(ctx context.Context, tenantID uuid.UUID) (*models.Pipeline, error) {
	p := &models.Pipeline{TenantID: tenantID, Name: "Sales Pipeline", Description: "Primary pipeline for property sales", IsActive: true}
	if err := r.CreatePipeline(ctx, p); err != nil {
		return nil, err
	}
	for i, s := range DefaultStages {
		st := &models.Stage{TenantID: tenantID, PipelineID: p.ID, Name: s.Name, Color: s.Color, Position: i, IsActive: true}
		if err := r.CreateStage(ctx, st); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ListPipelines returns the tenant's active pipelines.
func (r *Repository) ListPipelines(ctx context.Context, tenantID uuid.UUID) ([]models.Pipeline, error) {
	const q = `SELECT id, tenant_id, name, COALESCE(description, ''), is_active, created_at, updated_at
		FROM pipelines WHERE tenant_id = $1 AND is_active ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Pipeline
	for rows.Next() {
		var p models.Pipeline
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// CreateStage inserts a stage.
func (r *Repository) CreateStage(ctx context.Context, s *models.Stage) error {
	const q = `INSERT INTO stages (id, tenant_id, pipeline_id, name, color, position, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4, ''), $5, TRUE)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.TenantID, s.PipelineID, s.Name, s.Color, s.Position).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetStage returns a stage by ID within the tenant, or nil if not found.
func (r *Repository) GetStage(ctx context.Context, tenantID, id uuid.UUID) (*models.Stage, error) {
	const q = `SELECT id, tenant_id, pipeline_id, name, COALESCE(color, ''), position, is_active, created_at, updated_at
		FROM stages WHERE tenant_id = $1 AND id = $2`
	var s models.Stage
	err := r.pool.QueryRow(ctx, q, tenantID, id).
		Scan(&s.ID, &s.TenantID, &s.PipelineID, &s.Name, &s.Color, &s.Position, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListStages returns a pipeline's active stages in board order.
func (r *Repository) ListStages(ctx context.Context, tenantID, pipelineID uuid.UUID) ([]models.Stage, error) {
	const q = `SELECT id, tenant_id, pipeline_id, name, COALESCE(color, ''), position, is_active, created_at, updated_at
		FROM stages WHERE tenant_id = $1 AND pipeline_id = $2 AND is_active ORDER BY position`
	rows, err := r.pool.Query(ctx, q, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Stage
	for rows.Next() {
		var s models.Stage
		if err := rows.Scan(&s.ID, &s.TenantID, &s.PipelineID, &s.Name, &s.Color, &s.Position, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

const dealColumns = `id, tenant_id, title, pipeline_id, stage_id, property_id, contact_id, value,
	probability, position, assigned_to, expected_close_date, created_at, updated_at`

func scanDeal(row pgx.Row) (*models.Deal, error) {
	var d models.Deal
	err := row.Scan(&d.ID, &d.TenantID, &d.Title, &d.PipelineID, &d.StageID, &d.PropertyID, &d.ContactID,
		&d.Value, &d.Probability, &d.Position, &d.AssignedTo, &d.ExpectedCloseDate, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// CreateDeal inserts a deal.
func (r *Repository) CreateDeal(ctx context.Context, d *models.Deal) error {
	const q = `INSERT INTO deals (id, tenant_id, title, pipeline_id, stage_id, property_id, contact_id, value, probability, position, assigned_to, expected_close_date)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, d.TenantID, d.Title, d.PipelineID, d.StageID, d.PropertyID, d.ContactID,
		d.Value, d.Probability, d.Position, d.AssignedTo, d.ExpectedCloseDate).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// GetDeal returns a deal by ID within the tenant, or nil if not found.
func (r *Repository) GetDeal(ctx context.Context, tenantID, id uuid.UUID) (*models.Deal, error) {
	return scanDeal(r.pool.QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// ListDeals returns the tenant's deals, optionally narrowed to one pipeline
// or stage, in board order.
func (r *Repository) ListDeals(ctx context.Context, tenantID uuid.UUID, pipelineID, stageID *uuid.UUID) ([]models.Deal, error) {
	q := `SELECT ` + dealColumns + ` FROM deals WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if pipelineID != nil {
		args = append(args, *pipelineID)
		q += fmt.Sprintf(" AND pipeline_id = $%d", len(args))
	}
	if stageID != nil {
		args = append(args, *stageID)
		q += fmt.Sprintf(" AND stage_id = $%d", len(args))
	}
	q += " ORDER BY stage_id, position, created_at"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// UpdateDeal updates mutable deal fields.
func (r *Repository) UpdateDeal(ctx context.Context, d *models.Deal) (bool, error) {
	const q = `UPDATE deals SET title = $1, property_id = $2, contact_id = $3, value = $4,
			probability = $5, assigned_to = $6, expected_close_date = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9`
	tag, err := r.pool.Exec(ctx, q, d.Title, d.PropertyID, d.ContactID, d.Value,
		d.Probability, d.AssignedTo, d.ExpectedCloseDate, d.TenantID, d.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MoveDeal moves a deal to a stage and board position.
func (r *Repository) MoveDeal(ctx context.Context, tenantID, id, stageID uuid.UUID, position int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE deals SET stage_id = $1, position = $2, updated_at = NOW() WHERE tenant_id = $3 AND id = $4`,
		stageID, position, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteDeal removes a deal.
func (r *Repository) DeleteDeal(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM deals WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
