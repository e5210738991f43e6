package leads

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realtyflow/crm/internal/contacts"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/pkg/response"
)

var validStatuses = map[string]bool{
	models.LeadNew:       true,
	models.LeadContacted: true,
	models.LeadQualified: true,
	models.LeadLost:      true,
}

// Handler handles lead HTTP endpoints.
type Handler struct {
	repo     *Repository
	contacts *contacts.Repository
}

// NewHandler creates a leads handler.
func NewHandler(repo *Repository, contactRepo *contacts.Repository) *Handler {
	return &Handler{repo: repo, contacts: contactRepo}
}

// LeadRequest is the body for create/update.
type LeadRequest struct {
	FirstName    string     `json:"first_name" binding:"required"`
	LastName     string     `json:"last_name" binding:"required"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	Budget       *int64     `json:"budget"`
	Requirements string     `json:"requirements"`
	Priority     string     `json:"priority"`
	AssignedTo   *uuid.UUID `json:"assigned_to"`
}

// Create handles POST /leads.
func (h *Handler) Create(c *gin.Context) {
	t := tenancy.MustTenant(c)
	var req LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := req.Status
	if status == "" {
		status = models.LeadNew
	}
	if !validStatuses[status] {
		response.BadRequest(c, "invalid status")
		return
	}
	l := &models.Lead{
		TenantID:     t.ID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Source:       req.Source,
		Status:       status,
		Budget:       req.Budget,
		Requirements: req.Requirements,
		Priority:     req.Priority,
		AssignedTo:   req.AssignedTo,
	}
	if err := h.repo.Create(c.Request.Context(), l); err != nil {
		response.Internal(c, "failed to create lead")
		return
	}
	response.Created(c, l)
}

// List handles GET /leads with optional status and assigned_to filters.
func (h *Handler) List(c *gin.Context) {
	t := tenancy.MustTenant(c)
	var assignedTo *uuid.UUID
	if s := c.Query("assigned_to"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid assigned_to")
			return
		}
		assignedTo = &id
	}
	list, err := h.repo.List(c.Request.Context(), t.ID, c.Query("status"), assignedTo)
	if err != nil {
		response.Internal(c, "failed to list leads")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /leads/:id.
func (h *Handler) GetByID(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	l, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to load lead")
		return
	}
	if l == nil {
		response.NotFound(c, "lead not found")
		return
	}
	response.OK(c, l)
}

// Update handles PUT /leads/:id.
func (h *Handler) Update(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to load lead")
		return
	}
	if existing == nil {
		response.NotFound(c, "lead not found")
		return
	}
	if existing.Status == models.LeadConverted {
		response.Conflict(c, "converted leads cannot be edited")
		return
	}
	var req LeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := req.Status
	if status == "" {
		status = existing.Status
	}
	if !validStatuses[status] {
		response.BadRequest(c, "invalid status")
		return
	}
	l := &models.Lead{
		ID:           id,
		TenantID:     t.ID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Source:       req.Source,
		Status:       status,
		Budget:       req.Budget,
		Requirements: req.Requirements,
		Priority:     req.Priority,
		AssignedTo:   req.AssignedTo,
	}
	if _, err := h.repo.Update(c.Request.Context(), l); err != nil {
		response.Internal(c, "failed to update lead")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil || updated == nil {
		response.Internal(c, "failed to load lead")
		return
	}
	response.OK(c, updated)
}

// AssignRequest is the body for PATCH /leads/:id/assign.
type AssignRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Assign handles PATCH /leads/:id/assign.
func (h *Handler) Assign(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id required")
		return
	}
	ok, err := h.repo.Assign(c.Request.Context(), t.ID, id, req.UserID)
	if err != nil {
		response.Internal(c, "failed to assign lead")
		return
	}
	if !ok {
		response.NotFound(c, "lead not found")
		return
	}
	response.OK(c, gin.H{"id": id, "assigned_to": req.UserID})
}

// Convert handles POST /leads/:id/convert. Creates a contact from the lead
// and marks the lead converted.
func (h *Handler) Convert(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	l, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to load lead")
		return
	}
	if l == nil {
		response.NotFound(c, "lead not found")
		return
	}
	if l.Status == models.LeadConverted {
		response.Conflict(c, "lead already converted")
		return
	}

	ct := &models.Contact{
		TenantID:    t.ID,
		FirstName:   l.FirstName,
		LastName:    l.LastName,
		Email:       l.Email,
		Phone:       l.Phone,
		ContactType: models.ContactBuyer,
		Source:      l.Source,
		AssignedTo:  l.AssignedTo,
	}
	if err := h.contacts.Create(c.Request.Context(), ct); err != nil {
		response.Internal(c, "failed to create contact")
		return
	}
	if err := h.repo.MarkConverted(c.Request.Context(), t.ID, l.ID, ct.ID); err != nil {
		response.Internal(c, "failed to mark lead converted")
		return
	}
	response.OK(c, gin.H{"lead_id": l.ID, "contact": ct})
}

// Delete handles DELETE /leads/:id.
func (h *Handler) Delete(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to delete lead")
		return
	}
	if !ok {
		response.NotFound(c, "lead not found")
		return
	}
	response.NoContent(c)
}
