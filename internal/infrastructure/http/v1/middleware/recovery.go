// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	appctx "shopledger/internal/core/context"
	"shopledger/pkg/logger"
)

// Recovery turns a handler panic into an INTERNAL_ERROR for ErrorHandler to render.
// As with any 5xx, ErrorHandler then releases the request's idempotency key.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.FromContext(ctx).Errorw("panic recovered",
				"method", c.Request.Method,
				"route", c.FullPath(),
				"panic", rec,
				"stack", string(debug.Stack()),
			)

			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec)).
				WithDetail("request_id", appctx.GetRequestID(ctx)))
			c.Abort()
		}()
		c.Next()
	}
}
