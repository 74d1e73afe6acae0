package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
			failIdempotency(c, appErr.HTTPStatus, appErr.Code, body)
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)

		body := gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		}
		failIdempotency(c, http.StatusInternalServerError, apperror.CodeInternal, body)
		c.JSON(http.StatusInternalServerError, body)
	}
}

// failIdempotency records the error response against the request's key (best-effort).
// Conflicts and server errors are transient, so their key is released instead.
func failIdempotency(c *gin.Context, status int, code string, body any) {
	key, store := IdempotencyFrom(c)
	if store == nil {
		return
	}

	ctx := c.Request.Context()
	var err error
	if retryable(status, code) {
		err = store.ReleaseKey(ctx, key)
	} else {
		err = store.FailKey(ctx, key, status, "application/json", body)
	}
	if err != nil {
		logger.Warn(ctx, "failed to record idempotency outcome",
			"key", key,
			"code", code,
			"error", err,
		)
	}
}

func retryable(status int, code string) bool {
	return code == apperror.CodeConcurrencyConflict || status >= http.StatusInternalServerError
}
