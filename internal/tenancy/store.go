package tenancy

import (
	"context"

	"github.com/google/uuid"

	"github.com/realtyflow/crm/internal/models"
)

// Store is the persistence surface the gates depend on. Lookups return
// (nil, nil) for "not found"; a non-nil error always means a persistence
// failure, never a deny. State is read fresh on every request; nothing here
// may be cached across requests.
type Store interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (*models.UserTenant, error)
	SetCurrentTenant(ctx context.Context, userID, tenantID uuid.UUID) error
}
