package tenants

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/pkg/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	members    map[[2]uuid.UUID]*models.UserTenant
	addedRoles []models.Role
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: make(map[[2]uuid.UUID]*models.UserTenant)}
}

func (s *fakeStore) Create(_ context.Context, name, subdomain string) (*models.Tenant, error) {
	return &models.Tenant{ID: uuid.New(), Name: name, Subdomain: subdomain, Status: models.TenantTrial}, nil
}

func (s *fakeStore) ListForUser(_ context.Context, _ uuid.UUID) ([]models.Tenant, error) {
	return nil, nil
}

func (s *fakeStore) AddMember(_ context.Context, tenantID, userID uuid.UUID, role models.Role) error {
	s.addedRoles = append(s.addedRoles, role)
	s.members[[2]uuid.UUID{tenantID, userID}] = &models.UserTenant{
		ID: uuid.New(), UserID: userID, TenantID: tenantID, Role: role, IsActive: true,
	}
	return nil
}

func (s *fakeStore) GetMember(_ context.Context, tenantID, userID uuid.UUID) (*models.UserTenant, error) {
	return s.members[[2]uuid.UUID{tenantID, userID}], nil
}

func (s *fakeStore) UpdateMemberRole(_ context.Context, _, _ uuid.UUID, _ models.Role) (bool, error) {
	return true, nil
}

func (s *fakeStore) DeactivateMember(_ context.Context, tenantID, userID uuid.UUID) (bool, error) {
	m := s.members[[2]uuid.UUID{tenantID, userID}]
	if m == nil {
		return false, nil
	}
	m.IsActive = false
	return true, nil
}

func (s *fakeStore) ListMembers(_ context.Context, _ uuid.UUID) ([]Member, error) {
	return nil, nil
}

type fakeDirectory struct {
	byEmail map[string]*models.User
	created int
}

func (d *fakeDirectory) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return d.byEmail[email], nil
}

func (d *fakeDirectory) Create(_ context.Context, email, _, firstName, lastName string) (*models.User, error) {
	d.created++
	u := &models.User{ID: uuid.New(), Email: email, FirstName: firstName, LastName: lastName, IsActive: true}
	if d.byEmail == nil {
		d.byEmail = make(map[string]*models.User)
	}
	d.byEmail[email] = u
	return u, nil
}

type fakeMailer struct {
	sent []queue.EmailPayload
}

func (m *fakeMailer) EnqueueEmail(_ context.Context, payload queue.EmailPayload) error {
	m.sent = append(m.sent, payload)
	return nil
}

func inviteRouter(h *Handler, claims *auth.Claims, tenant *models.Tenant) *gin.Engine {
	r := gin.New()
	r.POST("/tenants/members/invite", func(c *gin.Context) {
		c.Set(auth.ContextClaims, claims)
		c.Set(tenancy.ContextTenant, tenant)
		c.Next()
	}, h.Invite)
	return r
}

func postInvite(r *gin.Engine, req InviteRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/tenants/members/invite", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Email: "admin@acme.test"}
}

func TestInviteNewUser(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{}
	mailer := &fakeMailer{}
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantActive}
	h := NewHandler(store, dir, nil, mailer, zap.NewNop())

	w := postInvite(inviteRouter(h, adminClaims(), tenant),
		InviteRequest{Email: "new@acme.test", Role: string(models.RoleAgent)})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, dir.created)
	assert.Equal(t, []models.Role{models.RoleAgent}, store.addedRoles)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "new@acme.test", mailer.sent[0].To)
}

func TestInviteRefusesOwnerRole(t *testing.T) {
	store := newFakeStore()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantActive}
	h := NewHandler(store, &fakeDirectory{}, nil, &fakeMailer{}, zap.NewNop())

	w := postInvite(inviteRouter(h, adminClaims(), tenant),
		InviteRequest{Email: "boss@acme.test", Role: string(models.RoleOwner)})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.addedRoles)
}

func TestInviteActiveMemberConflicts(t *testing.T) {
	// Re-inviting an active member must not change their role; an ADMIN could
	// otherwise rewrite any membership the owner-only routes protect.
	store := newFakeStore()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantActive}
	owner := &models.User{ID: uuid.New(), Email: "owner@acme.test", IsActive: true}
	dir := &fakeDirectory{byEmail: map[string]*models.User{owner.Email: owner}}
	require.NoError(t, store.AddMember(context.Background(), tenant.ID, owner.ID, models.RoleOwner))
	store.addedRoles = nil
	h := NewHandler(store, dir, nil, &fakeMailer{}, zap.NewNop())

	w := postInvite(inviteRouter(h, adminClaims(), tenant),
		InviteRequest{Email: owner.Email, Role: string(models.RoleAgent)})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, store.addedRoles)
	assert.Equal(t, models.RoleOwner, store.members[[2]uuid.UUID{tenant.ID, owner.ID}].Role)
}

func TestInviteReactivatesRemovedMember(t *testing.T) {
	store := newFakeStore()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantActive}
	former := &models.User{ID: uuid.New(), Email: "former@acme.test", IsActive: true}
	dir := &fakeDirectory{byEmail: map[string]*models.User{former.Email: former}}
	require.NoError(t, store.AddMember(context.Background(), tenant.ID, former.ID, models.RoleAgent))
	_, err := store.DeactivateMember(context.Background(), tenant.ID, former.ID)
	require.NoError(t, err)
	store.addedRoles = nil
	h := NewHandler(store, dir, nil, &fakeMailer{}, zap.NewNop())

	w := postInvite(inviteRouter(h, adminClaims(), tenant),
		InviteRequest{Email: former.Email, Role: string(models.RoleListingManager)})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []models.Role{models.RoleListingManager}, store.addedRoles)
	assert.Equal(t, 0, dir.created)
}
