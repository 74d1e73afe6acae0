package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"shopledger/internal/core/id"
	"shopledger/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which changes are compressed.
const DefaultCompressThreshold = 10 * 1024

// AuditRecord is a stored audit row.
type AuditRecord struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityType        string          `db:"entity_type" json:"entityType"`
	EntityID          id.ID           `db:"entity_id" json:"entityId"`
	Action            audit.Action    `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"userId"`
	Changes           json.RawMessage `db:"changes" json:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// AuditService stores audit entries in sys_audit.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Recorder = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Record implements audit.Recorder.
func (s *AuditService) Record(ctx context.Context, entry audit.Entry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	rec := s.encode(AuditRecord{
		ID:         id.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		UserID:     entry.UserID,
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	})

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.ID, rec.EntityType, rec.EntityID, rec.Action, rec.UserID,
		nullJSON(rec.Changes), rec.ChangesCompressed, rec.CompressionAlgo, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// encode compresses large change sets.
func (s *AuditService) encode(rec AuditRecord) AuditRecord {
	rec.CompressionAlgo = CompressionNone
	if len(rec.Changes) > s.compressThreshold {
		rec.ChangesCompressed = s.encoder.EncodeAll(rec.Changes, nil)
		rec.Changes = nil
		rec.CompressionAlgo = CompressionZstd
	}
	return rec
}

func (s *AuditService) decode(rec *AuditRecord) error {
	if rec.CompressionAlgo != CompressionZstd || len(rec.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(rec.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	rec.Changes = raw
	rec.ChangesCompressed = nil
	return nil
}

// GetEntityHistory retrieves audit history for an entity, newest first.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditRecord, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, user_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Action, &rec.UserID,
			&rec.Changes, &rec.ChangesCompressed, &rec.CompressionAlgo, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := s.decode(&rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func nullJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
