package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	appctx "shopledger/internal/core/context"
	"shopledger/internal/infrastructure/storage/postgres"
)

const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotencyKeyAlt = "X-Idempotency-Key"

	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore records the first outcome of a keyed request.
// Implemented by postgres.IdempotencyStore. ReleaseKey forgets a key whose
// outcome must not be replayed, so a retry with the same key runs again.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	ReleaseKey(ctx context.Context, key string) error
}

// Idempotency middleware replays the stored response for a repeated key.
// Applied to order creation and cash endpoints, where a retried POST must not settle twice.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			key = c.GetHeader(HeaderIdempotencyKeyAlt)
		}
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(c.Request.Context(), key, appctx.GetUserID(c.Request.Context()), operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)

		c.Next()
	}
}

// IdempotencyFrom returns the key acquired for this request, if any.
func IdempotencyFrom(c *gin.Context) (string, IdempotencyStore) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return "", nil
	}
	store, ok := c.Get(ctxIdempotencyStore)
	if !ok {
		return "", nil
	}
	s, _ := store.(IdempotencyStore)
	return key, s
}
