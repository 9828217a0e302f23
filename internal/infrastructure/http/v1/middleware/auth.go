package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"easyadmin/internal/core/apperror"
	appctx "easyadmin/internal/core/context"
	"easyadmin/internal/core/security"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// IdentityResolver loads the roles of an authenticated user.
type IdentityResolver interface {
	Resolve(ctx context.Context, user *appctx.UserContext) (*security.Identity, error)
}

// Auth middleware validates JWT tokens, then populates the user context and
// the permission identity of the request.
func Auth(validator JWTValidator, identities IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)

		ident, err := identities.Resolve(ctx, user)
		if err != nil {
			_ = c.Error(apperror.NewInternal(err))
			c.Abort()
			return
		}
		ctx = security.WithIdentity(ctx, ident)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
