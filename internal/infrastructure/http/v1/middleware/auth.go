package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"planbook/internal/core/apperror"
	"planbook/internal/core/principal"
)

// TokenValidator validates a bearer token and returns the principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (*principal.Principal, error)
}

// Principal middleware resolves the caller. A valid bearer token yields
// the token's principal; no token yields the anonymous principal, so the
// authorization policy decides per operation what anonymous may do.
// A present but invalid token is rejected outright.
func Principal(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			setPrincipal(c, principal.Anonymous())
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = c.Error(apperror.NewUnauthenticated("invalid authorization header format"))
			c.Abort()
			return
		}

		p, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthenticated("invalid token"))
			c.Abort()
			return
		}

		setPrincipal(c, p)
		c.Next()
	}
}

// RequireAuthenticated rejects anonymous callers. Used for endpoints that
// make no sense without an identity, like /auth/me.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal.Current(c.Request.Context())
		if p.IsAnonymous() {
			_ = c.Error(apperror.NewUnauthenticated("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p *principal.Principal) {
	ctx := principal.WithContext(c.Request.Context(), p)
	c.Request = c.Request.WithContext(ctx)
	c.Set("user_id", p.ID)
}
