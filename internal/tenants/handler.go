package tenants

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/pkg/queue"
	"github.com/realtyflow/crm/pkg/response"
	"github.com/realtyflow/crm/pkg/utils"
)

// Subdomain must be lowercase alphanumeric and hyphens only, 2-63 chars.
var subdomainRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// PipelineSeeder creates the default pipeline and stages for a new tenant.
type PipelineSeeder interface {
	SeedDefaultPipeline(ctx context.Context, tenantID uuid.UUID) (*models.Pipeline, error)
}

// Store is the tenant and membership persistence surface the handler uses.
type Store interface {
	Create(ctx context.Context, name, subdomain string) (*models.Tenant, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Tenant, error)
	AddMember(ctx context.Context, tenantID, userID uuid.UUID, role models.Role) error
	GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.UserTenant, error)
	UpdateMemberRole(ctx context.Context, tenantID, userID uuid.UUID, role models.Role) (bool, error)
	DeactivateMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]Member, error)
}

// UserDirectory looks up and creates user accounts for invites.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash, firstName, lastName string) (*models.User, error)
}

// Mailer enqueues outbound email jobs.
type Mailer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// Handler handles tenant and team HTTP endpoints.
type Handler struct {
	repo   Store
	users  UserDirectory
	seeder PipelineSeeder
	queue  Mailer
	logger *zap.Logger
}

// NewHandler creates a tenants handler.
func NewHandler(repo Store, users UserDirectory, seeder PipelineSeeder, q Mailer, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, users: users, seeder: seeder, queue: q, logger: logger}
}

// SignupRequest is the body for POST /tenants.
type SignupRequest struct {
	Name      string `json:"name" binding:"required"`
	Subdomain string `json:"subdomain"`
}

// Signup handles POST /tenants. Creates a trial tenant and adds the current
// user as OWNER. The caller's token still lists the old tenant set; a
// re-login is needed before the new tenant appears in it.
func (h *Handler) Signup(c *gin.Context) {
	claims := auth.MustClaims(c)
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name required")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 1 || len(req.Name) > 255 {
		response.BadRequest(c, "name must be 1-255 characters")
		return
	}
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	if req.Subdomain != "" && !subdomainRegex.MatchString(req.Subdomain) {
		response.BadRequest(c, "subdomain must be 2-63 chars, lowercase letters, numbers, hyphens only")
		return
	}

	t, err := h.repo.Create(c.Request.Context(), req.Name, req.Subdomain)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			response.Conflict(c, "a tenant with this subdomain already exists")
			return
		}
		response.Internal(c, "failed to create tenant")
		return
	}
	if err := h.repo.AddMember(c.Request.Context(), t.ID, claims.UserID, models.RoleOwner); err != nil {
		response.Internal(c, "failed to add you as owner")
		return
	}
	if h.seeder != nil {
		if _, err := h.seeder.SeedDefaultPipeline(c.Request.Context(), t.ID); err != nil {
			// The workspace is usable without a board; log and move on.
			h.logger.Warn("default pipeline seeding failed", zap.Error(err), zap.String("tenant_id", t.ID.String()))
		}
	}
	response.Created(c, t)
}

// ListMine handles GET /tenants. Returns tenants the current user belongs to.
func (h *Handler) ListMine(c *gin.Context) {
	claims := auth.MustClaims(c)
	list, err := h.repo.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Internal(c, "failed to load tenants")
		return
	}
	response.OK(c, list)
}

// Current handles GET /tenants/current. Returns the resolved tenant.
func (h *Handler) Current(c *gin.Context) {
	response.OK(c, tenancy.MustTenant(c))
}

// ListMembers handles GET /tenants/members for the resolved tenant.
func (h *Handler) ListMembers(c *gin.Context) {
	t := tenancy.MustTenant(c)
	members, err := h.repo.ListMembers(c.Request.Context(), t.ID)
	if err != nil {
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, members)
}

// InviteRequest is the body for POST /tenants/members/invite.
type InviteRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Invite handles POST /tenants/members/invite. Links an existing user (or
// creates a placeholder account) to the resolved tenant and enqueues the
// invitation email. Invites never grant OWNER and never touch an active
// membership; role changes and reactivations of active members go through
// the owner-only member routes.
func (h *Handler) Invite(c *gin.Context) {
	t := tenancy.MustTenant(c)
	claims := auth.MustClaims(c)
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !models.ValidRole(req.Role) {
		response.BadRequest(c, "invalid role")
		return
	}
	if models.Role(req.Role) == models.RoleOwner {
		response.BadRequest(c, "the OWNER role cannot be granted through invites")
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Internal(c, "failed to look up user")
		return
	}
	if user == nil {
		// Placeholder account; the invitee sets a real password via the
		// password-reset flow linked from the invite email.
		hash, err := utils.HashPassword(uuid.New().String())
		if err != nil {
			response.Internal(c, "failed to create user")
			return
		}
		user, err = h.users.Create(c.Request.Context(), req.Email, hash, req.FirstName, req.LastName)
		if err != nil {
			response.Internal(c, "failed to create user")
			return
		}
	} else {
		existing, err := h.repo.GetMember(c.Request.Context(), t.ID, user.ID)
		if err != nil {
			response.Internal(c, "failed to look up membership")
			return
		}
		if existing != nil && existing.IsActive {
			response.Conflict(c, "user is already a member of this tenant")
			return
		}
	}

	if err := h.repo.AddMember(c.Request.Context(), t.ID, user.ID, models.Role(req.Role)); err != nil {
		response.Internal(c, "failed to add member")
		return
	}

	if err := h.queue.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
		TenantID: t.ID,
		Kind:     "invite",
		To:       req.Email,
		Subject:  fmt.Sprintf("You're invited to join %s", t.Name),
		BodyHTML: inviteEmailHTML(t.Name, claims.Email, req.Role),
	}); err != nil {
		h.logger.Warn("invite email enqueue failed", zap.Error(err), zap.String("email", req.Email))
	}

	response.Created(c, gin.H{"user_id": user.ID, "tenant_id": t.ID, "role": req.Role})
}

// UpdateRoleRequest is the body for PATCH /tenants/members/:userId/role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateMemberRole handles PATCH /tenants/members/:userId/role (owner only).
func (h *Handler) UpdateMemberRole(c *gin.Context) {
	t := tenancy.MustTenant(c)
	claims := auth.MustClaims(c)
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if userID == claims.UserID {
		response.BadRequest(c, "cannot change your own role")
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidRole(req.Role) {
		response.BadRequest(c, "invalid role")
		return
	}
	ok, err := h.repo.UpdateMemberRole(c.Request.Context(), t.ID, userID, models.Role(req.Role))
	if err != nil {
		response.Internal(c, "failed to update role")
		return
	}
	if !ok {
		response.NotFound(c, "member not found")
		return
	}
	response.OK(c, gin.H{"user_id": userID, "role": req.Role})
}

// RemoveMember handles DELETE /tenants/members/:userId. Deactivates the
// membership; nothing is hard-deleted.
func (h *Handler) RemoveMember(c *gin.Context) {
	t := tenancy.MustTenant(c)
	claims := auth.MustClaims(c)
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if userID == claims.UserID {
		response.BadRequest(c, "cannot remove yourself")
		return
	}
	ok, err := h.repo.DeactivateMember(c.Request.Context(), t.ID, userID)
	if err != nil {
		response.Internal(c, "failed to remove member")
		return
	}
	if !ok {
		response.NotFound(c, "member not found")
		return
	}
	response.NoContent(c)
}

func inviteEmailHTML(tenantName, inviterEmail, role string) string {
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
<h2>You're invited to join %s</h2>
<p><strong>%s</strong> has invited you to join <strong>%s</strong> as a <strong>%s</strong>.</p>
<p>Log in to your RealtyFlow account to get started.</p>
</body></html>`, tenantName, inviterEmail, tenantName, role)
}
