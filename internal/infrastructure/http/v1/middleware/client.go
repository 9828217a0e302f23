package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "easyadmin/internal/core/context"
)

// ClientInfo records the caller's address, user agent and route in the
// request context for audit records.
func ClientInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ctx := appctx.WithClient(c.Request.Context(), &appctx.ClientInfo{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Path:      path,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
