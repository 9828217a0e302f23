package middleware

import (
	"github.com/gin-gonic/gin"

	"easyadmin/internal/core/apperror"
	"easyadmin/internal/core/security"
)

// RequireRole middleware lets the request through when the caller holds any
// of the role codes.
func RequireRole(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := security.GetIdentity(c.Request.Context())
		if ident.Anonymous() {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		for _, required := range codes {
			for _, role := range ident.Roles {
				if role.Code == required {
					c.Next()
					return
				}
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", codes),
		)
		c.Abort()
	}
}
