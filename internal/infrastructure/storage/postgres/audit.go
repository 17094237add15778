package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"planbook/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for a stored entry.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// Compile-time check that AuditStore implements audit.Recorder.
var _ audit.Recorder = (*AuditStore)(nil)

// storedEntry is the database shape of one audit record.
type storedEntry struct {
	ID                uuid.UUID       `db:"id"`
	Entity            string          `db:"entity"`
	EntityID          string          `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	Actor             string          `db:"actor"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditStore persists audit entries in the audit_log table.
// Large change payloads are stored zstd-compressed.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditStore creates the audit store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record writes one audit entry.
func (s *AuditStore) Record(ctx context.Context, entry audit.Entry) error {
	stored := storedEntry{
		ID:              uuid.New(),
		Entity:          entry.Entity,
		EntityID:        entry.EntityID,
		Action:          entry.Action,
		Actor:           entry.Actor,
		Changes:         entry.Changes,
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.CreatedAt,
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	if len(stored.Changes) > s.compressThreshold {
		stored.ChangesCompressed = s.encoder.EncodeAll(stored.Changes, nil)
		stored.Changes = nil
		stored.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO audit_log (
			id, entity, entity_id, action, actor,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		stored.ID, stored.Entity, stored.EntityID, stored.Action, stored.Actor,
		stored.Changes, stored.ChangesCompressed, stored.CompressionAlgo,
		stored.CreatedAt,
	)
	return err
}

// History retrieves the audit trail for one entity, newest first.
// Compressed payloads are transparently decompressed.
func (s *AuditStore) History(ctx context.Context, entity, entityID string, limit int) ([]audit.Entry, error) {
	sql := `
		SELECT entity, entity_id, action, actor,
		       changes, changes_compressed, compression_algo, created_at
		FROM audit_log
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entity, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var compressed []byte
		var algo CompressionAlgo
		err := rows.Scan(
			&e.Entity, &e.EntityID, &e.Action, &e.Actor,
			&e.Changes, &compressed, &algo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if algo == CompressionZstd && len(compressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress changes: %w", err)
			}
			e.Changes = decompressed
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
