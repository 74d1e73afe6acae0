package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shopledger/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// staleAfter is how long a pending key may sit before another request can reclaim it.
const staleAfter = time.Minute

// IdempotencyRecord is one row of sys_idempotency.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  int               `db:"response_status"`
	ContentType string            `db:"response_content_type"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	ExpiresAt   time.Time         `db:"expires_at"`
}

// IdempotencyReplay is the stored HTTP response returned for a repeated key.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps Idempotency-Key records for order creation and settlement requests.
// It always runs outside the business transaction so a failed request still records its outcome.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl, now: time.Now}
}

// AcquireKey claims key for a request.
// Returns:
//   - (nil, nil) if the caller owns the key and should process the request
//   - (replay, nil) if the request already finished
//   - (nil, error) if the key is in use or belongs to a different request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now().UTC()

	var (
		record   IdempotencyRecord
		inserted bool
	)
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING user_id, operation, status, request_hash,
			COALESCE(response, ''::bytea), COALESCE(response_status, 0), COALESCE(response_content_type, ''),
			updated_at, (xmax = 0) AS inserted
	`, key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&record.UserID, &record.Operation, &record.Status, &record.RequestHash,
		&record.Response, &record.StatusCode, &record.ContentType,
		&record.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", MapError(err))
	}
	record.Key = key

	if inserted {
		return nil, nil
	}
	return s.resolveExisting(ctx, record, userID, operation, requestHash, now)
}

func (s *IdempotencyStore) resolveExisting(ctx context.Context, record IdempotencyRecord, userID, operation, requestHash string, now time.Time) (*IdempotencyReplay, error) {
	if record.UserID != userID || record.Operation != operation || record.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(record.Key).
			WithDetail("stored_operation", record.Operation).
			WithDetail("request_operation", operation)
	}

	switch record.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return replayOf(record), nil

	case IdempotencyStatusPending:
		if now.Sub(record.UpdatedAt) <= staleAfter {
			return nil, apperror.NewIdempotencyConflict(record.Key)
		}
		tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
			UPDATE sys_idempotency SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
		`, now, record.Key, IdempotencyStatusPending, record.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("reclaim stale key: %w", MapError(err))
		}
		if tag.RowsAffected() == 0 {
			return nil, apperror.NewIdempotencyConflict(record.Key)
		}
		return nil, nil
	}

	return nil, fmt.Errorf("unknown idempotency status %q", record.Status)
}

func replayOf(record IdempotencyRecord) *IdempotencyReplay {
	replay := &IdempotencyReplay{
		StatusCode:  record.StatusCode,
		ContentType: record.ContentType,
		Body:        record.Response,
	}
	if replay.StatusCode == 0 {
		replay.StatusCode = http.StatusOK
	}
	if replay.ContentType == "" && replay.StatusCode != http.StatusNoContent {
		replay.ContentType = "application/json"
	}
	return replay
}

// CompleteKey stores the successful response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, response)
}

// FailKey stores the error response for replay.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, response any) error {
	var body []byte
	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		body = b
	}

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE idempotency_key = $6
	`, status, body, statusCode, contentType, s.now().UTC(), key)
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", MapError(err))
	}
	return nil
}

// ReleaseKey drops a pending key so the same key can be retried.
// Finished keys are left alone.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2`,
		key, IdempotencyStatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", MapError(err))
	}
	return nil
}

// CleanupExpired removes expired records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", MapError(err))
	}
	return tag.RowsAffected(), nil
}
