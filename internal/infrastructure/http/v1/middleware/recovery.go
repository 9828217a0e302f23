// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"easyadmin/internal/core/apperror"
	appctx "easyadmin/internal/core/context"
	"easyadmin/pkg/logger"
)

// Recovery turns a panic into a 500 response. The panic value and stack are
// logged; the client only sees the request id.
//
// It answers itself when nothing has been written yet, so it works whether or
// not ErrorHandler is still on the stack above the panic.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"user_id", appctx.GetUserID(ctx),
				"stack", string(debug.Stack()),
			)

			requestID := appctx.GetRequestID(ctx)
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", requestID)
			_ = c.Error(appErr)

			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    appErr.Code,
					"message": appErr.Message,
					"details": appErr.Details,
				})
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
