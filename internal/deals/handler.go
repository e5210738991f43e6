package deals

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/pkg/response"
)

// StageChangeHook is invoked after a deal lands on a new stage. The board
// move itself has already been committed; hook failures are logged by the
// implementation and never fail the request.
type StageChangeHook interface {
	ProcessStageChange(ctx context.Context, deal *models.Deal, stage *models.Stage)
}

// Store is the pipeline, stage, and deal persistence surface the handler uses.
type Store interface {
	CreatePipeline(ctx context.Context, p *models.Pipeline) error
	ListPipelines(ctx context.Context, tenantID uuid.UUID) ([]models.Pipeline, error)
	CreateStage(ctx context.Context, s *models.Stage) error
	GetStage(ctx context.Context, tenantID, id uuid.UUID) (*models.Stage, error)
	ListStages(ctx context.Context, tenantID, pipelineID uuid.UUID) ([]models.Stage, error)
	CreateDeal(ctx context.Context, d *models.Deal) error
	GetDeal(ctx context.Context, tenantID, id uuid.UUID) (*models.Deal, error)
	ListDeals(ctx context.Context, tenantID uuid.UUID, pipelineID, stageID *uuid.UUID) ([]models.Deal, error)
	UpdateDeal(ctx context.Context, d *models.Deal) (bool, error)
	MoveDeal(ctx context.Context, tenantID, id, stageID uuid.UUID, position int) (bool, error)
	DeleteDeal(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
}

// Handler handles pipeline, stage, and deal HTTP endpoints.
type Handler struct {
	repo Store
	hook StageChangeHook
}

// NewHandler creates a deals handler. hook may be nil.
func NewHandler(repo Store, hook StageChangeHook) *Handler {
	return &Handler{repo: repo, hook: hook}
}

// PipelineRequest is the body for creating a pipeline.
type PipelineRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreatePipeline handles POST /pipelines.
func (h *Handler) CreatePipeline(c *gin.Context) {
	t := tenancy.MustTenant(c)
	var req PipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.Pipeline{TenantID: t.ID, Name: req.Name, Description: req.Description, IsActive: true}
	if err := h.repo.CreatePipeline(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to create pipeline")
		return
	}
	response.Created(c, p)
}

// ListPipelines handles GET /pipelines.
func (h *Handler) ListPipelines(c *gin.Context) {
	t := tenancy.MustTenant(c)
	list, err := h.repo.ListPipelines(c.Request.Context(), t.ID)
	if err != nil {
		response.Internal(c, "failed to list pipelines")
		return
	}
	response.OK(c, list)
}

// StageRequest is the body for creating a stage.
type StageRequest struct {
	Name     string `json:"name" binding:"required"`
	Color    string `json:"color"`
	Position int    `json:"position"`
}

// CreateStage handles POST /pipelines/:id/stages.
func (h *Handler) CreateStage(c *gin.Context) {
	t := tenancy.MustTenant(c)
	pipelineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pipeline id")
		return
	}
	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.Stage{
		TenantID:   t.ID,
		PipelineID: pipelineID,
		Name:       req.Name,
		Color:      req.Color,
		Position:   req.Position,
		IsActive:   true,
	}
	if err := h.repo.CreateStage(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to create stage")
		return
	}
	response.Created(c, s)
}

// ListStages handles GET /pipelines/:id/stages.
func (h *Handler) ListStages(c *gin.Context) {
	t := tenancy.MustTenant(c)
	pipelineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pipeline id")
		return
	}
	list, err := h.repo.ListStages(c.Request.Context(), t.ID, pipelineID)
	if err != nil {
		response.Internal(c, "failed to list stages")
		return
	}
	response.OK(c, list)
}

// DealRequest is the body for create/update.
type DealRequest struct {
	Title             string     `json:"title" binding:"required"`
	PipelineID        uuid.UUID  `json:"pipeline_id"`
	StageID           uuid.UUID  `json:"stage_id"`
	PropertyID        *uuid.UUID `json:"property_id"`
	ContactID         *uuid.UUID `json:"contact_id"`
	Value             int64      `json:"value"`
	Probability       int        `json:"probability"`
	Position          int        `json:"position"`
	AssignedTo        *uuid.UUID `json:"assigned_to"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
}

// Create handles POST /deals.
func (h *Handler) Create(c *gin.Context) {
	t := tenancy.MustTenant(c)
	var req DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Probability < 0 || req.Probability > 100 {
		response.BadRequest(c, "probability must be between 0 and 100")
		return
	}
	stage, err := h.repo.GetStage(c.Request.Context(), t.ID, req.StageID)
	if err != nil {
		response.Internal(c, "failed to load stage")
		return
	}
	if stage == nil || stage.PipelineID != req.PipelineID {
		response.BadRequest(c, "stage does not belong to pipeline")
		return
	}
	d := &models.Deal{
		TenantID:          t.ID,
		Title:             req.Title,
		PipelineID:        req.PipelineID,
		StageID:           req.StageID,
		PropertyID:        req.PropertyID,
		ContactID:         req.ContactID,
		Value:             req.Value,
		Probability:       req.Probability,
		Position:          req.Position,
		AssignedTo:        req.AssignedTo,
		ExpectedCloseDate: req.ExpectedCloseDate,
	}
	if err := h.repo.CreateDeal(c.Request.Context(), d); err != nil {
		response.Internal(c, "failed to create deal")
		return
	}
	response.Created(c, d)
}

// List handles GET /deals with optional pipeline_id and stage_id filters.
func (h *Handler) List(c *gin.Context) {
	t := tenancy.MustTenant(c)
	var pipelineID, stageID *uuid.UUID
	if s := c.Query("pipeline_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid pipeline_id")
			return
		}
		pipelineID = &id
	}
	if s := c.Query("stage_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid stage_id")
			return
		}
		stageID = &id
	}
	list, err := h.repo.ListDeals(c.Request.Context(), t.ID, pipelineID, stageID)
	if err != nil {
		response.Internal(c, "failed to list deals")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /deals/:id.
func (h *Handler) GetByID(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid deal id")
		return
	}
	d, err := h.repo.GetDeal(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to load deal")
		return
	}
	if d == nil {
		response.NotFound(c, "deal not found")
		return
	}
	response.OK(c, d)
}

// UpdateDealRequest is the body for PUT /deals/:id. It deliberately carries
// no pipeline or stage fields; stage changes go through Move.
type UpdateDealRequest struct {
	Title             string     `json:"title" binding:"required"`
	PropertyID        *uuid.UUID `json:"property_id"`
	ContactID         *uuid.UUID `json:"contact_id"`
	Value             int64      `json:"value"`
	Probability       int        `json:"probability"`
	AssignedTo        *uuid.UUID `json:"assigned_to"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
}

// Update handles PUT /deals/:id.
func (h *Handler) Update(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid deal id")
		return
	}
	var req UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Probability < 0 || req.Probability > 100 {
		response.BadRequest(c, "probability must be between 0 and 100")
		return
	}
	d := &models.Deal{
		ID:                id,
		TenantID:          t.ID,
		Title:             req.Title,
		PropertyID:        req.PropertyID,
		ContactID:         req.ContactID,
		Value:             req.Value,
		Probability:       req.Probability,
		AssignedTo:        req.AssignedTo,
		ExpectedCloseDate: req.ExpectedCloseDate,
	}
	ok, err := h.repo.UpdateDeal(c.Request.Context(), d)
	if err != nil {
		response.Internal(c, "failed to update deal")
		return
	}
	if !ok {
		response.NotFound(c, "deal not found")
		return
	}
	updated, err := h.repo.GetDeal(c.Request.Context(), t.ID, id)
	if err != nil || updated == nil {
		response.Internal(c, "failed to load deal")
		return
	}
	response.OK(c, updated)
}

// MoveRequest is the body for PATCH /deals/:id/move.
type MoveRequest struct {
	StageID  uuid.UUID `json:"stage_id" binding:"required"`
	Position int       `json:"position"`
}

// Move handles PATCH /deals/:id/move. Moves the deal on the board and runs
// the stage-change automation.
func (h *Handler) Move(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid deal id")
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "stage_id required")
		return
	}
	d, err := h.repo.GetDeal(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to load deal")
		return
	}
	if d == nil {
		response.NotFound(c, "deal not found")
		return
	}
	stage, err := h.repo.GetStage(c.Request.Context(), t.ID, req.StageID)
	if err != nil {
		response.Internal(c, "failed to load stage")
		return
	}
	if stage == nil || stage.PipelineID != d.PipelineID {
		response.BadRequest(c, "stage does not belong to deal's pipeline")
		return
	}

	stageChanged := d.StageID != req.StageID
	if _, err := h.repo.MoveDeal(c.Request.Context(), t.ID, id, req.StageID, req.Position); err != nil {
		response.Internal(c, "failed to move deal")
		return
	}
	d.StageID = req.StageID
	d.Position = req.Position

	if stageChanged && h.hook != nil {
		h.hook.ProcessStageChange(c.Request.Context(), d, stage)
	}
	response.OK(c, d)
}

// Delete handles DELETE /deals/:id.
func (h *Handler) Delete(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid deal id")
		return
	}
	ok, err := h.repo.DeleteDeal(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to delete deal")
		return
	}
	if !ok {
		response.NotFound(c, "deal not found")
		return
	}
	response.NoContent(c)
}
