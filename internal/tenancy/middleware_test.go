package tenancy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newGatedRouter builds a router that injects claims (as the JWT middleware
// would) and runs the given gates before a trivial 200 handler.
func newGatedRouter(claims *auth.Claims, gates ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.ContextClaims, claims)
		c.Next()
	})
	handlers := append(gates, func(c *gin.Context) { response.OK(c, gin.H{"ok": true}) })
	r.GET("/resource", handlers...)
	r.POST("/resource", handlers...)
	return r
}

func doRequest(r *gin.Engine, method, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/resource", nil)
	req.Host = "localhost:8080"
	if header != "" {
		req.Header.Set(HeaderTenantID, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveTenantSetsContextAndPersistsCurrent(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	claims := claimsFor(t1.ID)

	r := newGatedRouter(claims, ResolveTenant(NewResolver(store), store), RequireTenant())
	w := doRequest(r, http.MethodGet, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{t1.ID}, store.currentSetTo)
}

func TestResolveTenantSoftOnNoContext(t *testing.T) {
	store := newFakeStore()
	claims := claimsFor()

	// Without RequireTenant the request proceeds tenant-less.
	r := newGatedRouter(claims, ResolveTenant(NewResolver(store), store))
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "").Code)

	// With RequireTenant it fails.
	r = newGatedRouter(claims, ResolveTenant(NewResolver(store), store), RequireTenant())
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "").Code)
}

func TestResolveTenantHeaderDeniedStatus(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	other := store.addTenant(&models.Tenant{Name: "Other", Status: models.TenantActive})
	claims := claimsFor(t1.ID)

	r := newGatedRouter(claims, ResolveTenant(NewResolver(store), store), RequireTenant())
	w := doRequest(r, http.MethodGet, other.ID.String())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResolveTenantSuspendedStatusCodes(t *testing.T) {
	store := newFakeStore()
	suspended := store.addTenant(&models.Tenant{Name: "Frozen", Status: models.TenantSuspended})
	r := newGatedRouter(claimsFor(suspended.ID), ResolveTenant(NewResolver(store), store))
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "").Code)

	expired := store.addTenant(&models.Tenant{Name: "Lapsed", Status: models.TenantExpired})
	r = newGatedRouter(claimsFor(expired.ID), ResolveTenant(NewResolver(store), store))
	assert.Equal(t, http.StatusPaymentRequired, doRequest(r, http.MethodGet, "").Code)
}

func TestRequireRoleAllowLists(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})

	tests := []struct {
		role    models.Role
		allowed RoleSet
		want    int
	}{
		{models.RoleOwner, RolesOwnerOnly, http.StatusOK},
		{models.RoleAdmin, RolesOwnerOnly, http.StatusForbidden},
		{models.RoleAdmin, RolesAdmin, http.StatusOK},
		{models.RoleAgent, RolesAdmin, http.StatusForbidden},
		{models.RoleAgent, RolesStaff, http.StatusOK},
		{models.RoleListingManager, RolesStaff, http.StatusOK},
		{models.RoleAccount, RolesStaff, http.StatusForbidden},
	}
	for _, tt := range tests {
		claims := claimsFor(t1.ID)
		store.addMembership(claims.UserID, t1.ID, tt.role, true)
		r := newGatedRouter(claims,
			ResolveTenant(NewResolver(store), store), RequireTenant(), RequireRole(store, tt.allowed))
		w := doRequest(r, http.MethodGet, "")
		assert.Equal(t, tt.want, w.Code, "role %s against %v", tt.role, tt.allowed)
	}
}

func TestRequireRoleMissingMembership(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	claims := claimsFor(t1.ID)
	// Token lists the tenant but no membership row exists (revoked after issuance).

	r := newGatedRouter(claims,
		ResolveTenant(NewResolver(store), store), RequireTenant(), RequireRole(store, RolesStaff))
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "").Code)
}

func TestRequireRoleInactiveMembership(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	claims := claimsFor(t1.ID)
	store.addMembership(claims.UserID, t1.ID, models.RoleOwner, false)

	r := newGatedRouter(claims,
		ResolveTenant(NewResolver(store), store), RequireTenant(), RequireRole(store, RolesStaff))
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "").Code)
}

func TestRequireActiveSubscription(t *testing.T) {
	store := newFakeStore()
	active := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	trial := store.addTenant(&models.Tenant{Name: "Newbie", Status: models.TenantTrial})

	for _, tenant := range []*models.Tenant{active, trial} {
		claims := claimsFor(tenant.ID)
		r := newGatedRouter(claims,
			ResolveTenant(NewResolver(store), store), RequireTenant(), RequireActiveSubscription())
		assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, "").Code, tenant.Name)
	}
}

func TestRequireActiveSubscriptionZeroMembershipBypass(t *testing.T) {
	store := newFakeStore()
	claims := claimsFor()

	// A brand-new user must be able to reach tenant signup.
	r := newGatedRouter(claims, ResolveTenant(NewResolver(store), store), RequireActiveSubscription())
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, "").Code)
}
