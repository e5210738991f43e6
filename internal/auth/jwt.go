package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for malformed, expired, or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned for unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInactiveUser is returned when the user's active flag is false.
	ErrInactiveUser = errors.New("user account is inactive")
)

// Claims holds JWT claims: the user and the tenants the user belonged to at
// issuance. Roles are deliberately absent; they are read live from user_tenants
// on every request so role changes apply without re-login. The tenant list is
// frozen at issuance and only refreshes on re-login; the 7-day expiry bounds
// that staleness.
type Claims struct {
	UserID          uuid.UUID   `json:"user_id"`
	Email           string      `json:"email"`
	TenantIDs       []uuid.UUID `json:"tenant_ids"`
	CurrentTenantID *uuid.UUID  `json:"current_tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// HasTenant reports whether id is in the token's tenant list.
func (c *Claims) HasTenant(id uuid.UUID) bool {
	for _, t := range c.TenantIDs {
		if t == id {
			return true
		}
	}
	return false
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// Generate creates a new JWT embedding the user's current tenant memberships.
func (s *JWTService) Generate(userID uuid.UUID, email string, tenantIDs []uuid.UUID, currentTenantID *uuid.UUID) (string, error) {
	claims := Claims{
		UserID:          userID,
		Email:           email,
		TenantIDs:       tenantIDs,
		CurrentTenantID: currentTenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
