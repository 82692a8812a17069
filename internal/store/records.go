package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"collectord/internal/services"
)

// Upsert inserts a pending record, or updates the existing pending row when
// the same submitter resubmits the same reference/category pair. Name,
// recorded date, description, and upload status are refreshed on conflict.
func (s *Store) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return services.Wrap(services.ErrValidation, "store", "upsert", "record is nil", nil)
	}
	if err := validateRecord(record); err != nil {
		return err
	}
	if record.UploadStatus == "" {
		record.UploadStatus = UploadStatusNotUploaded
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO records (
            stage, submitter_id, submitter_name, category, reference,
            recorded_at, description, upload_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (submitter_id, reference, category) WHERE stage = 'pending'
        DO UPDATE SET
            submitter_name = excluded.submitter_name,
            recorded_at = excluded.recorded_at,
            description = excluded.description,
            upload_status = excluded.upload_status,
            updated_at = excluded.updated_at`,
		StagePending,
		record.SubmitterID,
		record.SubmitterName,
		record.Category,
		record.Reference,
		record.RecordedAt.Format(RecordedAtLayout),
		nullableString(record.Description),
		record.UploadStatus,
		now,
		now,
	)
	if err != nil {
		return services.Wrap(services.ErrStoreIntegrity, "store", "upsert", "", err)
	}
	return nil
}

func validateRecord(record *Record) error {
	missing := ""
	switch {
	case record.SubmitterID == 0:
		missing = "submitter_id"
	case record.SubmitterName == "":
		missing = "submitter_name"
	case record.Category == "":
		missing = "category"
	case record.Reference == "":
		missing = "reference"
	case record.RecordedAt.IsZero():
		missing = "recorded_at"
	}
	if missing != "" {
		return services.Wrap(services.ErrValidation, "store", "upsert", "missing required field "+missing, nil)
	}
	return nil
}

// GetByID fetches a record by identifier. Returns nil when no row matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// ListByUploadStatus returns pending-stage records with the given upload
// status, ordered by insertion for determinism.
func (s *Store) ListByUploadStatus(ctx context.Context, status UploadStatus) ([]*Record, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM records WHERE stage = ? AND upload_status = ? ORDER BY id`,
		StagePending, status)
}

// ListByDownloadStatus returns archived-stage records with the given download
// status, ordered by insertion for determinism.
func (s *Store) ListByDownloadStatus(ctx context.Context, status DownloadStatus) ([]*Record, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM records WHERE stage = ? AND download_status = ? ORDER BY id`,
		StageArchived, status)
}

// List returns records filtered by stage, or all records when stage is empty.
func (s *Store) List(ctx context.Context, stage Stage) ([]*Record, error) {
	if stage == "" {
		return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM records ORDER BY id`)
	}
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM records WHERE stage = ? ORDER BY id`, stage)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats returns aggregated lifecycle counts.
func (s *Store) Stats(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT stage, download_status, COUNT(1) FROM records GROUP BY stage, download_status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	summary := HealthSummary{}
	for rows.Next() {
		var stage Stage
		var status DownloadStatus
		var count int
		if err := rows.Scan(&stage, &status, &count); err != nil {
			return HealthSummary{}, err
		}
		summary.Total += count
		switch stage {
		case StagePending:
			summary.Pending += count
		case StageArchived:
			summary.Archived += count
			switch status {
			case DownloadStatusNotDownloaded:
				summary.NotDownloaded += count
			case DownloadStatusDownloaded:
				summary.Downloaded += count
			case DownloadStatusProcessed:
				summary.Processed += count
			case DownloadStatusFailed:
				summary.Failed += count
			}
		}
	}
	return summary, rows.Err()
}

// Remove deletes a record by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM records`)
	if err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}
	return res.RowsAffected()
}

const recordColumns = "id, stage, submitter_id, submitter_name, category, reference, recorded_at, description, upload_status, download_status, remote_location, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id             int64
		stage          string
		submitterID    int64
		submitterName  string
		category       string
		reference      string
		recordedRaw    string
		description    sql.NullString
		uploadStatus   string
		downloadStatus string
		remoteLocation sql.NullString
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&id,
		&stage,
		&submitterID,
		&submitterName,
		&category,
		&reference,
		&recordedRaw,
		&description,
		&uploadStatus,
		&downloadStatus,
		&remoteLocation,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:             id,
		Stage:          Stage(stage),
		SubmitterID:    submitterID,
		SubmitterName:  submitterName,
		Category:       category,
		Reference:      reference,
		Description:    description.String,
		UploadStatus:   UploadStatus(uploadStatus),
		DownloadStatus: DownloadStatus(downloadStatus),
		RemoteLocation: remoteLocation.String,
	}

	if recorded, err := time.Parse(RecordedAtLayout, recordedRaw); err == nil {
		record.RecordedAt = recorded
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(RecordedAtLayout, value)
}
