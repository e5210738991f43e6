package tenancy

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
)

const (
	// ContextTenant is the gin context key for the resolved tenant.
	ContextTenant = "tenant"
	// HeaderTenantID is the explicit tenant selection header.
	HeaderTenantID = "X-Tenant-Id"
)

// RoleSet is a fixed allow-list of membership roles for an operation.
type RoleSet map[models.Role]struct{}

// NewRoleSet builds a RoleSet from roles.
func NewRoleSet(roles ...models.Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Contains reports whether role is in the set.
func (s RoleSet) Contains(role models.Role) bool {
	_, ok := s[role]
	return ok
}

// The allow-lists used by protected operations. Each operation declares one
// explicitly; the gate performs no hierarchy inference.
var (
	RolesOwnerOnly = NewRoleSet(models.RoleOwner)
	RolesAdmin     = NewRoleSet(models.RoleOwner, models.RoleAdmin)
	RolesStaff     = NewRoleSet(models.RoleOwner, models.RoleAdmin, models.RoleAgent, models.RoleListingManager)
)

// TenantFrom returns the resolved tenant, if any.
func TenantFrom(c *gin.Context) (*models.Tenant, bool) {
	v, ok := c.Get(ContextTenant)
	if !ok {
		return nil, false
	}
	t, ok := v.(*models.Tenant)
	return t, ok
}

// MustTenant returns the resolved tenant. Panics if the route was not
// registered behind RequireTenant.
func MustTenant(c *gin.Context) *models.Tenant {
	return c.MustGet(ContextTenant).(*models.Tenant)
}

// ResolveTenant resolves the request's tenant and stores it in context.
// This is the soft policy: a request with no resolvable tenant proceeds
// tenant-less, which platform and onboarding routes rely on. Every other
// resolver failure (unknown tenant, unauthorized header, suspended or
// expired status) is terminal. On success the resolved tenant is persisted
// back as the user's current tenant, best effort.
func ResolveTenant(resolver *Resolver, store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustClaims(c)
		t, err := resolver.Resolve(c.Request.Context(), claims, c.GetHeader(HeaderTenantID), c.Request.Host)
		if err != nil {
			if errors.Is(err, ErrNoTenantContext) {
				c.Next()
				return
			}
			writeError(c, err)
			return
		}
		c.Set(ContextTenant, t)
		if claims.CurrentTenantID == nil || *claims.CurrentTenantID != t.ID {
			_ = store.SetCurrentTenant(c.Request.Context(), claims.UserID, t.ID)
		}
		c.Next()
	}
}

// RequireTenant is the hard policy: the request fails unless ResolveTenant
// produced a tenant. Layer it after ResolveTenant on all tenant-scoped routes.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := TenantFrom(c); !ok {
			writeError(c, ErrNoTenantContext)
			return
		}
		c.Next()
	}
}

// RequireRole checks the user's membership role in the resolved tenant
// against the operation's allow-list. The membership row is read fresh on
// every request; a missing or inactive row denies regardless of allow-list.
func RequireRole(store Store, allowed RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := TenantFrom(c)
		if !ok {
			writeError(c, ErrNoTenantContext)
			return
		}
		claims := auth.MustClaims(c)
		m, err := store.GetMembership(c.Request.Context(), claims.UserID, t.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		if m == nil || !m.IsActive {
			writeError(c, ErrMembershipNotFound)
			return
		}
		if !allowed.Contains(m.Role) {
			writeError(c, ErrInsufficientRole)
			return
		}
		c.Next()
	}
}

// RequireActiveSubscription blocks tenant-scoped mutating operations unless
// the resolved tenant is active or in trial. A user with zero tenant
// memberships passes regardless, so onboarding (tenant signup) is never
// blocked by a tenant that does not exist yet.
func RequireActiveSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.MustClaims(c)
		if len(claims.TenantIDs) == 0 {
			c.Next()
			return
		}
		t, ok := TenantFrom(c)
		if !ok {
			writeError(c, ErrSubscriptionInactive)
			return
		}
		if t.Status != models.TenantActive && t.Status != models.TenantTrial {
			writeError(c, ErrSubscriptionInactive)
			return
		}
		c.Next()
	}
}
