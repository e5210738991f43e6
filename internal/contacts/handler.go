package contacts

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/pkg/response"
)

// Handler handles contact HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a contacts handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ContactRequest is the body for create/update.
type ContactRequest struct {
	FirstName   string     `json:"first_name" binding:"required"`
	LastName    string     `json:"last_name" binding:"required"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	ContactType string     `json:"contact_type" binding:"required"`
	Source      string     `json:"source"`
	City        string     `json:"city"`
	Notes       string     `json:"notes"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
}

// Create handles POST /contacts.
func (h *Handler) Create(c *gin.Context) {
	t := tenancy.MustTenant(c)
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ct := &models.Contact{
		TenantID:    t.ID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		ContactType: req.ContactType,
		Source:      req.Source,
		City:        req.City,
		Notes:       req.Notes,
		AssignedTo:  req.AssignedTo,
	}
	if err := h.repo.Create(c.Request.Context(), ct); err != nil {
		response.Internal(c, "failed to create contact")
		return
	}
	response.Created(c, ct)
}

// List handles GET /contacts with optional type and search filters.
func (h *Handler) List(c *gin.Context) {
	t := tenancy.MustTenant(c)
	list, err := h.repo.List(c.Request.Context(), t.ID, c.Query("type"), c.Query("search"))
	if err != nil {
		response.Internal(c, "failed to list contacts")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /contacts/:id.
func (h *Handler) GetByID(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	ct, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to load contact")
		return
	}
	if ct == nil {
		response.NotFound(c, "contact not found")
		return
	}
	response.OK(c, ct)
}

// Update handles PUT /contacts/:id.
func (h *Handler) Update(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ct := &models.Contact{
		ID:          id,
		TenantID:    t.ID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		ContactType: req.ContactType,
		Source:      req.Source,
		City:        req.City,
		Notes:       req.Notes,
		AssignedTo:  req.AssignedTo,
	}
	ok, err := h.repo.Update(c.Request.Context(), ct)
	if err != nil {
		response.Internal(c, "failed to update contact")
		return
	}
	if !ok {
		response.NotFound(c, "contact not found")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil || updated == nil {
		response.Internal(c, "failed to load contact")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /contacts/:id.
func (h *Handler) Delete(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid contact id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to delete contact")
		return
	}
	if !ok {
		response.NotFound(c, "contact not found")
		return
	}
	response.NoContent(c)
}
