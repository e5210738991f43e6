package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realtyflow/crm/pkg/response"
	"github.com/realtyflow/crm/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token     string      `json:"token"`
	User      interface{} `json:"user"`
	TenantIDs []uuid.UUID `json:"tenant_ids,omitempty"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. The new user has no tenant memberships
// yet; the issued token carries an empty tenant list so onboarding routes
// (tenant signup) pass the subscription gate via the zero-membership bypass.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	existing, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to check email")
		return
	}
	if existing != nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FirstName, req.LastName)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, nil, nil)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login. Issues a token embedding the user's current
// active tenant memberships.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	u, currentTenant, err := h.repo.GetWithCurrentTenantByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	if u == nil || !utils.CheckPassword(req.Password, u.Password) {
		// Same message for unknown email and wrong password.
		response.Unauthorized(c, ErrInvalidCredentials.Error())
		return
	}
	if !u.IsActive {
		response.Forbidden(c, ErrInactiveUser.Error())
		return
	}

	tenantIDs, err := h.repo.ListTenantIDs(c.Request.Context(), u.ID)
	if err != nil {
		response.Internal(c, "failed to load tenants")
		return
	}
	if currentTenant != nil && !containsTenant(tenantIDs, *currentTenant) {
		currentTenant = nil
	}

	token, err := h.jwt.Generate(u.ID, u.Email, tenantIDs, currentTenant)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: u.ToPublic(), TenantIDs: tenantIDs}})
}

// Me handles GET /auth/me. Returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	claims := MustClaims(c)
	u, err := h.repo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || u == nil {
		response.Internal(c, "failed to load user")
		return
	}
	response.OK(c, u.ToPublic())
}

func containsTenant(ids []uuid.UUID, id uuid.UUID) bool {
	for _, t := range ids {
		if t == id {
			return true
		}
	}
	return false
}
