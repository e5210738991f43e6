package tenancy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
)

// Labels that never identify a tenant when they lead the hostname.
var reservedSubdomains = map[string]struct{}{
	"www": {},
	"api": {},
	"app": {},
}

// SubdomainFromHost returns the leading label of host if it can identify a
// tenant: the host must have at least three labels (acme.realtyflow.io, not
// realtyflow.io) and the label must not be reserved. A port suffix is ignored.
func SubdomainFromHost(host string) string {
	host, _, _ = strings.Cut(host, ":")
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	sub := strings.ToLower(labels[0])
	if _, reserved := reservedSubdomains[sub]; reserved {
		return ""
	}
	return sub
}

// Resolver produces exactly one tenant context for an authenticated request.
// Candidates are evaluated in fixed priority order, first match wins:
//
//  1. explicit X-Tenant-Id header, only if listed in the token
//  2. the current tenant recorded in the token
//  3. the hostname subdomain, only if the matching tenant is listed in the token
//  4. the first tenant in the token's list
//
// A header candidate outside the token's list is rejected outright, never
// silently replaced by a fallback.
type Resolver struct {
	store Store
}

// NewResolver creates a tenant resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the tenant for the request, or an error from the gate
// taxonomy. ErrNoTenantContext is returned when no candidate exists at all;
// callers choose whether that is fatal (tenant-scoped routes) or not
// (platform routes).
func (r *Resolver) Resolve(ctx context.Context, claims *auth.Claims, headerTenantID, host string) (*models.Tenant, error) {
	// 1) Explicit header.
	if headerTenantID != "" {
		id, err := uuid.Parse(headerTenantID)
		if err != nil {
			return nil, ErrTenantNotFound
		}
		if !claims.HasTenant(id) {
			return nil, ErrTenantAccessDenied
		}
		t, err := r.store.GetTenant(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get tenant: %w", err)
		}
		if t == nil {
			return nil, ErrTenantNotFound
		}
		return checkStatus(t)
	}

	// 2) Current tenant recorded in the token. A stale reference (tenant
	// deleted since issuance) falls through to the next candidate.
	if claims.CurrentTenantID != nil {
		t, err := r.store.GetTenant(ctx, *claims.CurrentTenantID)
		if err != nil {
			return nil, fmt.Errorf("get tenant: %w", err)
		}
		if t != nil {
			return checkStatus(t)
		}
	}

	// 3) Hostname subdomain.
	if sub := SubdomainFromHost(host); sub != "" {
		t, err := r.store.GetTenantBySubdomain(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("get tenant by subdomain: %w", err)
		}
		if t != nil {
			if !claims.HasTenant(t.ID) {
				return nil, ErrTenantAccessDenied
			}
			return checkStatus(t)
		}
	}

	// 4) First tenant in the token's list.
	if len(claims.TenantIDs) > 0 {
		t, err := r.store.GetTenant(ctx, claims.TenantIDs[0])
		if err != nil {
			return nil, fmt.Errorf("get tenant: %w", err)
		}
		if t == nil {
			return nil, ErrTenantNotFound
		}
		return checkStatus(t)
	}

	return nil, ErrNoTenantContext
}

// checkStatus short-circuits on billing state before any further gate runs.
func checkStatus(t *models.Tenant) (*models.Tenant, error) {
	switch t.Status {
	case models.TenantSuspended:
		return nil, ErrTenantSuspended
	case models.TenantExpired:
		return nil, ErrTenantExpired
	}
	return t, nil
}
