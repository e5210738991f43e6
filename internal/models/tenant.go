package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus is the billing state of a tenant.
type TenantStatus string

const (
	TenantTrial     TenantStatus = "trial"
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantExpired   TenantStatus = "expired"
)

// Tenant is an isolated brokerage account. All domain data is scoped by tenant ID.
type Tenant struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Subdomain      string       `json:"subdomain,omitempty"`
	Status         TenantStatus `json:"status"`
	SubscriptionID *string      `json:"subscription_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Role is a membership role within a tenant. The set is closed; protected
// operations declare their allow-list from these constants.
type Role string

const (
	RoleOwner          Role = "OWNER"
	RoleAdmin          Role = "ADMIN"
	RoleAgent          Role = "AGENT"
	RoleListingManager Role = "LISTING_MANAGER"
	RoleAccount        Role = "ACCOUNT"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleAgent, RoleListingManager, RoleAccount:
		return true
	}
	return false
}

// UserTenant links a user to a tenant with a role. (user_id, tenant_id) is unique.
type UserTenant struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
