package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"collectord/internal/config"
	"collectord/internal/logging"
	"collectord/internal/notifications"
	"collectord/internal/retrieval"
	"collectord/internal/store"
)

// Downloader stages a direct location into a transient local file.
type Downloader interface {
	Download(ctx context.Context, location string) (string, error)
}

// Uploader moves a local file into durable object storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, filename string) (string, error)
}

// Summary counts the outcome of one fulfillment pass.
type Summary struct {
	Downloaded int
	Processed  int
	Failed     int
	Skipped    int
}

// Pipeline drives archived records through retrieve, archive, cleanup and
// finalize.
type Pipeline struct {
	store      *store.Store
	retriever  retrieval.Retriever
	downloader Downloader
	uploader   Uploader
	notifier   notifications.Service
	pacing     time.Duration
	logger     *slog.Logger
}

// New builds a fulfillment pipeline from configuration.
func New(cfg *config.Config, st *store.Store, retriever retrieval.Retriever, downloader Downloader, uploader Uploader, notifier notifications.Service, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Pipeline{
		store:      st,
		retriever:  retriever,
		downloader: downloader,
		uploader:   uploader,
		notifier:   notifier,
		pacing:     time.Duration(cfg.Retrieval.PacingSeconds) * time.Second,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}
}

// RunOnce processes every archived record still awaiting download. Records
// are handled one at a time with a pacing delay between retrieval calls so
// the external source is never hammered.
func (p *Pipeline) RunOnce(ctx context.Context) (Summary, error) {
	records, err := p.store.ListByDownloadStatus(ctx, store.DownloadStatusNotDownloaded)
	if err != nil {
		return Summary{}, fmt.Errorf("list records awaiting download: %w", err)
	}

	var summary Summary
	for i, record := range records {
		if i > 0 {
			if err := p.pace(ctx); err != nil {
				return summary, err
			}
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		switch p.process(ctx, record) {
		case store.DownloadStatusDownloaded:
			summary.Downloaded++
		case store.DownloadStatusProcessed:
			summary.Processed++
		case store.DownloadStatusFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}
	return summary, nil
}

// process runs one record through the pipeline and returns the download
// status it ended at. An empty status means the record was left at
// not_downloaded for a later pass.
func (p *Pipeline) process(ctx context.Context, record *store.Record) store.DownloadStatus {
	logger := p.logger.With(
		logging.Int64("record_id", record.ID),
		logging.String("reference", record.Reference))

	result, err := p.retriever.Retrieve(ctx, record.Reference)
	if err != nil {
		logger.Error("retrieval failed", logging.Error(err))
		p.markStatus(ctx, record.ID, store.DownloadStatusFailed, logger)
		p.notifyFailure(ctx, record, err, logger)
		return store.DownloadStatusFailed
	}

	meta := store.RetrievalMetadata{
		JobID:             result.JobID,
		DatasetID:         result.DatasetID,
		Reference:         record.Reference,
		ResultCount:       result.ResultCount,
		HasDirectDownload: result.DirectLocation != "",
		RunStatus:         string(result.Status),
	}
	if err := p.store.SaveProcessingMetadata(ctx, record.ID, meta); err != nil {
		logger.Warn("saving retrieval metadata failed", logging.Error(err))
	}

	if result.Status != retrieval.StatusSucceeded {
		logger.Warn("retrieval reported failure",
			logging.String("job_id", result.JobID))
		p.markStatus(ctx, record.ID, store.DownloadStatusFailed, logger)
		p.notifyFailure(ctx, record,
			fmt.Errorf("retrieval run %s did not succeed", result.JobID), logger)
		return store.DownloadStatusFailed
	}

	if result.DirectLocation == "" {
		// The external side processed the media asynchronously; there is
		// nothing local to archive.
		logger.Info("media processed remotely, no direct download",
			logging.String("job_id", result.JobID))
		p.markStatus(ctx, record.ID, store.DownloadStatusProcessed, logger)
		return store.DownloadStatusProcessed
	}

	localPath, err := p.downloader.Download(ctx, result.DirectLocation)
	if err != nil {
		logger.Error("download failed", logging.Error(err))
		p.markStatus(ctx, record.ID, store.DownloadStatusFailed, logger)
		p.notifyFailure(ctx, record, err, logger)
		return store.DownloadStatusFailed
	}
	defer p.cleanup(localPath, logger)

	meta.LocalFile = localPath
	if err := p.store.SaveProcessingMetadata(ctx, record.ID, meta); err != nil {
		logger.Warn("saving retrieval metadata failed", logging.Error(err))
	}

	location, err := p.uploader.Upload(ctx, localPath, archiveFilename(record))
	if err != nil {
		// Retrieval worked, so the record stays at not_downloaded and the
		// next pass retries the archive.
		logger.Error("archive upload failed", logging.Error(err))
		return ""
	}

	if err := p.store.SetRemoteLocation(ctx, record.ID, location); err != nil {
		logger.Error("recording remote location failed", logging.Error(err))
		return ""
	}
	p.markStatus(ctx, record.ID, store.DownloadStatusDownloaded, logger)
	logger.Info("record fulfilled", logging.String("remote_location", location))
	if err := p.notifier.NotifyRecordFulfilled(ctx, record.Reference, location); err != nil {
		logger.Warn("fulfillment notification failed", logging.Error(err))
	}
	return store.DownloadStatusDownloaded
}

func (p *Pipeline) notifyFailure(ctx context.Context, record *store.Record, cause error, logger *slog.Logger) {
	if err := p.notifier.NotifyRecordFailed(ctx, record.Reference, cause); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
}

func (p *Pipeline) markStatus(ctx context.Context, id int64, status store.DownloadStatus, logger *slog.Logger) {
	moved, err := p.store.SetDownloadStatus(ctx, id, status)
	if err != nil {
		logger.Error("status transition failed",
			logging.String("status", string(status)),
			logging.Error(err))
		return
	}
	if !moved {
		logger.Warn("record already left not_downloaded, status unchanged",
			logging.String("status", string(status)))
	}
}

func (p *Pipeline) cleanup(localPath string, logger *slog.Logger) {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("removing transient file failed",
			logging.String("path", localPath),
			logging.Error(err))
	}
}

func (p *Pipeline) pace(ctx context.Context) error {
	if p.pacing <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.pacing)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// archiveFilename embeds category and submitter id so remote files carry
// their provenance and never collide.
func archiveFilename(record *store.Record) string {
	return fmt.Sprintf("%s_%d_%s.mp4",
		sanitizeToken(record.Category), record.SubmitterID, uuid.NewString())
}

func sanitizeToken(token string) string {
	var b strings.Builder
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "uncategorized"
	}
	return b.String()
}
