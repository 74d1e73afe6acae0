package postgres

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
)

func TestIdempotencyStore_ResolveExisting(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	s := &IdempotencyStore{now: func() time.Time { return now }}
	base := IdempotencyRecord{
		Key:         "k1",
		UserID:      "u1",
		Operation:   "POST /api/v1/orders/sale",
		RequestHash: "h1",
		UpdatedAt:   now.Add(-10 * time.Second),
	}

	t.Run("different request", func(t *testing.T) {
		_, err := s.resolveExisting(context.Background(), base, "u1", base.Operation, "other", now)
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotencyMismatch))
	})

	t.Run("still running", func(t *testing.T) {
		rec := base
		rec.Status = IdempotencyStatusPending
		_, err := s.resolveExisting(context.Background(), rec, "u1", rec.Operation, "h1", now)
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotencyConflict))
	})

	t.Run("finished replays", func(t *testing.T) {
		rec := base
		rec.Status = IdempotencyStatusSuccess
		rec.StatusCode = http.StatusCreated
		rec.Response = []byte(`{"id":"x"}`)

		replay, err := s.resolveExisting(context.Background(), rec, "u1", rec.Operation, "h1", now)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, replay.StatusCode)
		assert.Equal(t, "application/json", replay.ContentType)
		assert.JSONEq(t, `{"id":"x"}`, string(replay.Body))
	})
}

func TestReplayOf_NoContentKeepsEmptyType(t *testing.T) {
	replay := replayOf(IdempotencyRecord{StatusCode: http.StatusNoContent})
	assert.Equal(t, "", replay.ContentType)
}
