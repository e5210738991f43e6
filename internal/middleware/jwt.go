package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/pkg/response"
)

// UserStore loads users for the per-request active-flag re-check.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// JWT returns a middleware that validates the bearer token and sets claims in
// context. The user row is re-read on every request so deactivation takes
// effect immediately, even for outstanding tokens.
func JWT(jwtService *auth.JWTService, users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Internal(c, "failed to load user")
			c.Abort()
			return
		}
		if user == nil || !user.IsActive {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(auth.ContextClaims, claims)
		c.Next()
	}
}
