package tenancy

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/realtyflow/crm/pkg/response"
)

// Gate error taxonomy. Every failure is terminal for the request: the
// remaining gates and the domain handler never run.
var (
	// ErrTenantNotFound: a candidate tenant id has no stored tenant.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantAccessDenied: a header- or host-supplied tenant is not among
	// the token's authorized tenants.
	ErrTenantAccessDenied = errors.New("not authorized for this tenant")
	// ErrNoTenantContext: no tenant could be resolved and the route requires one.
	ErrNoTenantContext = errors.New("tenant context required")
	// ErrTenantSuspended: the resolved tenant is suspended.
	ErrTenantSuspended = errors.New("tenant is suspended")
	// ErrTenantExpired: the resolved tenant's subscription has expired.
	ErrTenantExpired = errors.New("tenant subscription has expired")
	// ErrMembershipNotFound: no active membership links the user to the tenant.
	ErrMembershipNotFound = errors.New("no membership in this tenant")
	// ErrInsufficientRole: the membership role is not in the operation's allow-list.
	ErrInsufficientRole = errors.New("insufficient permissions")
	// ErrSubscriptionInactive: the tenant's billing state disallows use.
	ErrSubscriptionInactive = errors.New("tenant subscription is not active, please upgrade to continue")
)

// writeError maps gate errors to HTTP responses. Unexpected persistence
// errors fall through to a generic 500 and are never converted to a deny.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrTenantExpired), errors.Is(err, ErrSubscriptionInactive):
		response.PaymentRequired(c, err.Error())
	case errors.Is(err, ErrTenantAccessDenied),
		errors.Is(err, ErrNoTenantContext),
		errors.Is(err, ErrTenantSuspended),
		errors.Is(err, ErrMembershipNotFound),
		errors.Is(err, ErrInsufficientRole):
		response.Forbidden(c, err.Error())
	default:
		response.Internal(c, "error checking tenant access")
	}
	c.Abort()
}
