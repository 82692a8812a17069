package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"collectord/internal/services"
)

// RetrievalMetadata describes one retrieval attempt against the external
// media source. It is persisted as an opaque JSON blob and replaced wholesale
// on every later attempt for the same record.
type RetrievalMetadata struct {
	JobID             string `json:"job_id,omitempty"`
	DatasetID         string `json:"dataset_id,omitempty"`
	Reference         string `json:"reference"`
	RecordID          int64  `json:"record_id"`
	ResultCount       int    `json:"result_count"`
	HasDirectDownload bool   `json:"has_direct_download"`
	RunStatus         string `json:"run_status,omitempty"`
	LocalFile         string `json:"local_file,omitempty"`
}

// StoredMetadata is a persisted retrieval-metadata row.
type StoredMetadata struct {
	RecordID  int64
	Metadata  RetrievalMetadata
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveProcessingMetadata creates or replaces the retrieval metadata for a record.
func (s *Store) SaveProcessingMetadata(ctx context.Context, recordID int64, meta RetrievalMetadata) error {
	meta.RecordID = recordID
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal retrieval metadata: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO processing_metadata (record_id, metadata_json, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT (record_id) DO UPDATE SET
             metadata_json = excluded.metadata_json,
             updated_at = excluded.updated_at`,
		recordID,
		string(payload),
		now,
		now,
	)
	if err != nil {
		return services.Wrap(services.ErrStoreIntegrity, "store", "save processing metadata", "", err)
	}
	return nil
}

// ProcessingMetadataFor returns the stored retrieval metadata for a record,
// or nil when no attempt has been recorded.
func (s *Store) ProcessingMetadataFor(ctx context.Context, recordID int64) (*StoredMetadata, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT record_id, metadata_json, created_at, updated_at
         FROM processing_metadata WHERE record_id = ?`,
		recordID,
	)

	var (
		id         int64
		payload    string
		createdRaw string
		updatedRaw string
	)
	if err := row.Scan(&id, &payload, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get processing metadata: %w", err)
	}

	stored := &StoredMetadata{RecordID: id}
	if err := json.Unmarshal([]byte(payload), &stored.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal retrieval metadata: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		stored.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		stored.UpdatedAt = updated
	}
	return stored, nil
}
