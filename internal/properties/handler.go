package properties

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/pkg/response"
)

var validStatuses = map[string]bool{
	models.PropertyAvailable: true,
	models.PropertyHold:      true,
	models.PropertySold:      true,
	models.PropertyRented:    true,
}

// Handler handles property HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a properties handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// PropertyRequest is the body for create/update.
type PropertyRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Pincode      string   `json:"pincode"`
	PropertyType string   `json:"property_type" binding:"required"`
	ListingType  string   `json:"listing_type" binding:"required"`
	Price        int64    `json:"price" binding:"required"`
	RentPrice    *int64   `json:"rent_price"`
	Area         int      `json:"area" binding:"required"`
	Bedrooms     *int     `json:"bedrooms"`
	Bathrooms    *int     `json:"bathrooms"`
	Parking      *int     `json:"parking"`
	Amenities    []string `json:"amenities"`
}

// Create handles POST /properties.
func (h *Handler) Create(c *gin.Context) {
	t := tenancy.MustTenant(c)
	claims := auth.MustClaims(c)
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.Property{
		TenantID:     t.ID,
		Title:        req.Title,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Pincode:      req.Pincode,
		PropertyType: req.PropertyType,
		ListingType:  req.ListingType,
		Price:        req.Price,
		RentPrice:    req.RentPrice,
		Area:         req.Area,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Parking:      req.Parking,
		Status:       models.PropertyAvailable,
		Amenities:    req.Amenities,
		CreatedBy:    claims.UserID,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to create property")
		return
	}
	response.Created(c, p)
}

// List handles GET /properties with optional status, type, and search filters.
func (h *Handler) List(c *gin.Context) {
	t := tenancy.MustTenant(c)
	f := ListFilter{
		Status:       c.Query("status"),
		PropertyType: c.Query("type"),
		Search:       c.Query("search"),
	}
	list, err := h.repo.List(c.Request.Context(), t.ID, f)
	if err != nil {
		response.Internal(c, "failed to list properties")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /properties/:id.
func (h *Handler) GetByID(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid property id")
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to load property")
		return
	}
	if p == nil {
		response.NotFound(c, "property not found")
		return
	}
	response.OK(c, p)
}

// Update handles PUT /properties/:id.
func (h *Handler) Update(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid property id")
		return
	}
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.Property{
		ID:           id,
		TenantID:     t.ID,
		Title:        req.Title,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		Pincode:      req.Pincode,
		PropertyType: req.PropertyType,
		ListingType:  req.ListingType,
		Price:        req.Price,
		RentPrice:    req.RentPrice,
		Area:         req.Area,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Parking:      req.Parking,
		Amenities:    req.Amenities,
	}
	ok, err := h.repo.Update(c.Request.Context(), p)
	if err != nil {
		response.Internal(c, "failed to update property")
		return
	}
	if !ok {
		response.NotFound(c, "property not found")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), t.ID, id)
	if err != nil || updated == nil {
		response.Internal(c, "failed to load property")
		return
	}
	response.OK(c, updated)
}

// UpdateStatusRequest is the body for PATCH /properties/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /properties/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid property id")
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validStatuses[req.Status] {
		response.BadRequest(c, "invalid status")
		return
	}
	ok, err := h.repo.UpdateStatus(c.Request.Context(), t.ID, id, req.Status)
	if err != nil {
		response.Internal(c, "failed to update status")
		return
	}
	if !ok {
		response.NotFound(c, "property not found")
		return
	}
	response.OK(c, gin.H{"id": id, "status": req.Status})
}

// Delete handles DELETE /properties/:id.
func (h *Handler) Delete(c *gin.Context) {
	t := tenancy.MustTenant(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid property id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), t.ID, id)
	if err != nil {
		response.Internal(c, "failed to delete property")
		return
	}
	if !ok {
		response.NotFound(c, "property not found")
		return
	}
	response.NoContent(c)
}
