package store

import (
	"context"
	"fmt"
	"time"

	"collectord/internal/services"
)

// PromoteToArchive moves a pending record to the archived stage, marking it
// uploaded and resetting its download status in the same statement. The WHERE
// guard makes the transition idempotent: a retry against an already-archived
// record affects zero rows and returns promoted=false with no error.
func (s *Store) PromoteToArchive(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE records
         SET stage = ?, upload_status = ?, download_status = ?, updated_at = ?
         WHERE id = ? AND stage = ?`,
		StageArchived,
		UploadStatusUploaded,
		DownloadStatusNotDownloaded,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StagePending,
	)
	if err != nil {
		return false, services.Wrap(services.ErrStoreIntegrity, "store", "promote to archive", "", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("promote to archive: %w: id %d", ErrRecordNotFound, id)
	}
	// Already archived; retry is a no-op.
	return false, nil
}

// SetDownloadStatus transitions an archived record out of not_downloaded.
// Transitions are one-way: attempts against a record already in a terminal
// status affect zero rows and report applied=false.
func (s *Store) SetDownloadStatus(ctx context.Context, id int64, status DownloadStatus) (bool, error) {
	if _, ok := downloadStatusSet[status]; !ok {
		return false, services.Wrap(services.ErrValidation, "store", "set download status",
			fmt.Sprintf("unknown status %q", status), nil)
	}
	if status == DownloadStatusNotDownloaded {
		return false, services.Wrap(services.ErrValidation, "store", "set download status",
			"use ResetDownloadStatus to return records to not_downloaded", nil)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE records SET download_status = ?, updated_at = ?
         WHERE id = ? AND stage = ? AND download_status = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StageArchived,
		DownloadStatusNotDownloaded,
	)
	if err != nil {
		return false, services.Wrap(services.ErrStoreIntegrity, "store", "set download status", "", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetRemoteLocation records where the archived media ended up in object storage.
func (s *Store) SetRemoteLocation(ctx context.Context, id int64, location string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE records SET remote_location = ?, updated_at = ? WHERE id = ? AND stage = ?`,
		location,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StageArchived,
	)
	if err != nil {
		return services.Wrap(services.ErrStoreIntegrity, "store", "set remote location", "", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set remote location: %w: id %d", ErrRecordNotFound, id)
	}
	return nil
}

// ResetDownloadStatus is the explicit operator action that returns failed or
// processed records to not_downloaded so a later pipeline pass re-selects
// them. With no ids, all eligible records are reset.
func (s *Store) ResetDownloadStatus(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE records SET download_status = ?, updated_at = ?
             WHERE stage = ? AND download_status IN (?, ?)`,
			DownloadStatusNotDownloaded,
			now,
			StageArchived,
			DownloadStatusFailed,
			DownloadStatusProcessed,
		)
		if err != nil {
			return 0, fmt.Errorf("reset download status: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+5)
	args = append(args, DownloadStatusNotDownloaded, now, StageArchived, DownloadStatusFailed, DownloadStatusProcessed)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE records SET download_status = ?, updated_at = ?
        WHERE stage = ? AND download_status IN (?, ?) AND id IN (` + placeholders + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset selected records: %w", err)
	}
	return res.RowsAffected()
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
