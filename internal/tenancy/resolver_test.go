package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
)

type fakeStore struct {
	tenants      map[uuid.UUID]*models.Tenant
	bySubdomain  map[string]*models.Tenant
	memberships  map[[2]uuid.UUID]*models.UserTenant
	failLookups  bool
	currentSetTo []uuid.UUID
}

var errStore = errors.New("connection refused")

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants:     make(map[uuid.UUID]*models.Tenant),
		bySubdomain: make(map[string]*models.Tenant),
		memberships: make(map[[2]uuid.UUID]*models.UserTenant),
	}
}

func (s *fakeStore) addTenant(t *models.Tenant) *models.Tenant {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.tenants[t.ID] = t
	if t.Subdomain != "" {
		s.bySubdomain[t.Subdomain] = t
	}
	return t
}

func (s *fakeStore) addMembership(userID, tenantID uuid.UUID, role models.Role, active bool) {
	s.memberships[[2]uuid.UUID{userID, tenantID}] = &models.UserTenant{
		ID: uuid.New(), UserID: userID, TenantID: tenantID, Role: role, IsActive: active,
	}
}

func (s *fakeStore) GetTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if s.failLookups {
		return nil, errStore
	}
	return s.tenants[id], nil
}

func (s *fakeStore) GetTenantBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	if s.failLookups {
		return nil, errStore
	}
	return s.bySubdomain[subdomain], nil
}

func (s *fakeStore) GetMembership(_ context.Context, userID, tenantID uuid.UUID) (*models.UserTenant, error) {
	if s.failLookups {
		return nil, errStore
	}
	return s.memberships[[2]uuid.UUID{userID, tenantID}], nil
}

func (s *fakeStore) SetCurrentTenant(_ context.Context, _, tenantID uuid.UUID) error {
	s.currentSetTo = append(s.currentSetTo, tenantID)
	return nil
}

func claimsFor(tenantIDs ...uuid.UUID) *auth.Claims {
	return &auth.Claims{
		UserID:    uuid.New(),
		Email:     "agent@acme.test",
		TenantIDs: tenantIDs,
	}
}

func TestSubdomainFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"acme.realtyflow.io", "acme"},
		{"acme.realtyflow.io:8080", "acme"},
		{"ACME.realtyflow.io", "acme"},
		{"realtyflow.io", ""},
		{"localhost", ""},
		{"localhost:8080", ""},
		{"www.realtyflow.io", ""},
		{"api.realtyflow.io", ""},
		{"app.realtyflow.io", ""},
		{"acme.eu.realtyflow.io", "acme"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubdomainFromHost(tt.host), "host %q", tt.host)
	}
}

func TestResolveHeaderWins(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	t2 := store.addTenant(&models.Tenant{Name: "Beta", Subdomain: "beta", Status: models.TenantActive})
	claims := claimsFor(t1.ID, t2.ID)
	claims.CurrentTenantID = &t2.ID

	// Header beats both the token's current tenant and the subdomain.
	got, err := NewResolver(store).Resolve(context.Background(), claims, t1.ID.String(), "beta.realtyflow.io")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, got.ID)
}

func TestResolveHeaderNotInTokenDenied(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	other := store.addTenant(&models.Tenant{Name: "Other", Status: models.TenantActive})

	// A real tenant the user is not a member of must not fall through to a
	// permitted one.
	_, err := NewResolver(store).Resolve(context.Background(), claimsFor(t1.ID), other.ID.String(), "")
	assert.ErrorIs(t, err, ErrTenantAccessDenied)
}

func TestResolveHeaderMalformed(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})

	_, err := NewResolver(store).Resolve(context.Background(), claimsFor(t1.ID), "not-a-uuid", "")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestResolveCurrentTenantFromToken(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	t2 := store.addTenant(&models.Tenant{Name: "Beta", Status: models.TenantActive})
	claims := claimsFor(t1.ID, t2.ID)
	claims.CurrentTenantID = &t2.ID

	got, err := NewResolver(store).Resolve(context.Background(), claims, "", "")
	require.NoError(t, err)
	assert.Equal(t, t2.ID, got.ID)
}

func TestResolveStaleCurrentTenantFallsThrough(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	gone := uuid.New()
	claims := claimsFor(t1.ID)
	claims.CurrentTenantID = &gone

	got, err := NewResolver(store).Resolve(context.Background(), claims, "", "")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, got.ID)
}

func TestResolveSubdomain(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	t2 := store.addTenant(&models.Tenant{Name: "Beta", Subdomain: "beta", Status: models.TenantActive})

	got, err := NewResolver(store).Resolve(context.Background(), claimsFor(t1.ID, t2.ID), "", "beta.realtyflow.io")
	require.NoError(t, err)
	assert.Equal(t, t2.ID, got.ID)
}

func TestResolveSubdomainNotInTokenDenied(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	store.addTenant(&models.Tenant{Name: "Beta", Subdomain: "beta", Status: models.TenantActive})

	_, err := NewResolver(store).Resolve(context.Background(), claimsFor(t1.ID), "", "beta.realtyflow.io")
	assert.ErrorIs(t, err, ErrTenantAccessDenied)
}

func TestResolveUnknownSubdomainFallsThrough(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})

	got, err := NewResolver(store).Resolve(context.Background(), claimsFor(t1.ID), "", "ghost.realtyflow.io")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, got.ID)
}

func TestResolveFirstTenantFallback(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	t2 := store.addTenant(&models.Tenant{Name: "Beta", Status: models.TenantActive})

	got, err := NewResolver(store).Resolve(context.Background(), claimsFor(t1.ID, t2.ID), "", "localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, t1.ID, got.ID)
}

func TestResolveNoTenants(t *testing.T) {
	store := newFakeStore()
	_, err := NewResolver(store).Resolve(context.Background(), claimsFor(), "", "localhost")
	assert.ErrorIs(t, err, ErrNoTenantContext)
}

func TestResolveSuspendedAndExpired(t *testing.T) {
	store := newFakeStore()
	suspended := store.addTenant(&models.Tenant{Name: "Frozen", Status: models.TenantSuspended})
	expired := store.addTenant(&models.Tenant{Name: "Lapsed", Status: models.TenantExpired})

	_, err := NewResolver(store).Resolve(context.Background(), claimsFor(suspended.ID), "", "")
	assert.ErrorIs(t, err, ErrTenantSuspended)

	_, err = NewResolver(store).Resolve(context.Background(), claimsFor(expired.ID), "", "")
	assert.ErrorIs(t, err, ErrTenantExpired)
}

func TestResolveStoreFailureIsNotADeny(t *testing.T) {
	store := newFakeStore()
	t1 := store.addTenant(&models.Tenant{Name: "Acme", Status: models.TenantActive})
	store.failLookups = true

	_, err := NewResolver(store).Resolve(context.Background(), claimsFor(t1.ID), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errStore)
	assert.NotErrorIs(t, err, ErrTenantAccessDenied)
	assert.NotErrorIs(t, err, ErrTenantNotFound)
}
