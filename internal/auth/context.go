package auth

import "github.com/gin-gonic/gin"

// ContextClaims is the gin context key for validated token claims.
const ContextClaims = "auth_claims"

// MustClaims returns the claims set by the JWT middleware. Panics if the
// route was not registered behind it.
func MustClaims(c *gin.Context) *Claims {
	return c.MustGet(ContextClaims).(*Claims)
}

// ClaimsFrom returns the claims if the request was authenticated.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
