package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"collectord/internal/retrieval"
	"collectord/internal/store"
	"collectord/internal/testsupport"
)

type stubRetriever struct {
	results map[string]retrieval.Result
	err     error
	calls   int
}

func (s *stubRetriever) Retrieve(_ context.Context, reference string) (retrieval.Result, error) {
	s.calls++
	if s.err != nil {
		return retrieval.Result{}, s.err
	}
	if result, ok := s.results[reference]; ok {
		return result, nil
	}
	return retrieval.Result{Status: retrieval.StatusFailed}, nil
}

type stubDownloader struct {
	dir  string
	err  error
	path string
}

func (s *stubDownloader) Download(_ context.Context, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	path := filepath.Join(s.dir, "staged.mp4")
	if err := os.WriteFile(path, []byte("bytes"), 0o644); err != nil {
		return "", err
	}
	s.path = path
	return path, nil
}

type stubUploader struct {
	location string
	err      error
	filename string
}

func (s *stubUploader) Upload(_ context.Context, _ string, filename string) (string, error) {
	s.filename = filename
	if s.err != nil {
		return "", s.err
	}
	return s.location, nil
}

type fixture struct {
	pipeline   *Pipeline
	store      *store.Store
	retriever  *stubRetriever
	downloader *stubDownloader
	uploader   *stubUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	retriever := &stubRetriever{results: map[string]retrieval.Result{}}
	downloader := &stubDownloader{dir: t.TempDir()}
	uploader := &stubUploader{location: "https://files.example.com/a.mp4"}
	return &fixture{
		pipeline:   New(cfg, st, retriever, downloader, uploader, nil, nil),
		store:      st,
		retriever:  retriever,
		downloader: downloader,
		uploader:   uploader,
	}
}

func TestRunOnceFulfillsDirectDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := testsupport.SeedArchivedRecord(t, f.store, 42, "https://example.com/v/1", "fun")
	f.retriever.results[record.Reference] = retrieval.Result{
		Status:         retrieval.StatusSucceeded,
		DirectLocation: "https://cdn.example.com/a.mp4",
		JobID:          "run-1",
		DatasetID:      "ds-1",
		ResultCount:    1,
	}

	summary, err := f.pipeline.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Downloaded != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	updated, err := f.store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.DownloadStatus != store.DownloadStatusDownloaded {
		t.Fatalf("download status = %q", updated.DownloadStatus)
	}
	if updated.RemoteLocation != "https://files.example.com/a.mp4" {
		t.Fatalf("remote location = %q", updated.RemoteLocation)
	}

	if !strings.HasPrefix(f.uploader.filename, "fun_42_") || !strings.HasSuffix(f.uploader.filename, ".mp4") {
		t.Fatalf("archive filename = %q", f.uploader.filename)
	}
	if _, err := os.Stat(f.downloader.path); !os.IsNotExist(err) {
		t.Fatalf("transient file %s still exists", f.downloader.path)
	}

	meta, err := f.store.ProcessingMetadataFor(ctx, record.ID)
	if err != nil {
		t.Fatalf("ProcessingMetadataFor: %v", err)
	}
	if meta == nil || meta.Metadata.JobID != "run-1" || meta.Metadata.LocalFile == "" {
		t.Fatalf("metadata = %+v", meta)
	}
}

func TestRunOnceMarksAsyncRetrievalProcessed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := testsupport.SeedArchivedRecord(t, f.store, 7, "https://example.com/v/2", "beauty")
	f.retriever.results[record.Reference] = retrieval.Result{
		Status: retrieval.StatusSucceeded,
		JobID:  "run-2",
	}

	summary, err := f.pipeline.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	updated, _ := f.store.GetByID(ctx, record.ID)
	if updated.DownloadStatus != store.DownloadStatusProcessed {
		t.Fatalf("download status = %q", updated.DownloadStatus)
	}
	if updated.RemoteLocation != "" {
		t.Fatalf("remote location = %q, want empty", updated.RemoteLocation)
	}
}

func TestRunOnceMarksRetrievalFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := testsupport.SeedArchivedRecord(t, f.store, 9, "https://example.com/v/3", "fun")

	summary, err := f.pipeline.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	updated, _ := f.store.GetByID(ctx, record.ID)
	if updated.DownloadStatus != store.DownloadStatusFailed {
		t.Fatalf("download status = %q", updated.DownloadStatus)
	}
	if updated.RemoteLocation != "" {
		t.Fatalf("remote location = %q, want empty", updated.RemoteLocation)
	}
}

func TestRunOnceLeavesRecordForRetryWhenArchiveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := testsupport.SeedArchivedRecord(t, f.store, 3, "https://example.com/v/4", "fun")
	f.retriever.results[record.Reference] = retrieval.Result{
		Status:         retrieval.StatusSucceeded,
		DirectLocation: "https://cdn.example.com/b.mp4",
		ResultCount:    1,
	}
	f.uploader.err = errors.New("storage quota exceeded")

	summary, err := f.pipeline.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	updated, _ := f.store.GetByID(ctx, record.ID)
	if updated.DownloadStatus != store.DownloadStatusNotDownloaded {
		t.Fatalf("download status = %q, want not_downloaded", updated.DownloadStatus)
	}
	if _, err := os.Stat(f.downloader.path); !os.IsNotExist(err) {
		t.Fatalf("transient file %s still exists after failed archive", f.downloader.path)
	}
}

func TestRunOnceSkipsRecordsAlreadyTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := testsupport.SeedArchivedRecord(t, f.store, 5, "https://example.com/v/5", "fun")
	if _, err := f.store.SetDownloadStatus(ctx, record.ID, store.DownloadStatusFailed); err != nil {
		t.Fatalf("SetDownloadStatus: %v", err)
	}

	summary, err := f.pipeline.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if f.retriever.calls != 0 {
		t.Fatalf("retriever called %d times, want 0", f.retriever.calls)
	}
	if summary != (Summary{}) {
		t.Fatalf("summary = %+v, want empty", summary)
	}
}

func TestRunOnceReplacesMetadataOnRerun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := testsupport.SeedArchivedRecord(t, f.store, 6, "https://example.com/v/6", "fun")

	// First pass fails and records its attempt.
	if _, err := f.pipeline.RunOnce(ctx); err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}

	// Operator reset, second pass succeeds asynchronously.
	if _, err := f.store.ResetDownloadStatus(ctx, record.ID); err != nil {
		t.Fatalf("ResetDownloadStatus: %v", err)
	}
	f.retriever.results[record.Reference] = retrieval.Result{
		Status: retrieval.StatusSucceeded,
		JobID:  "run-7",
	}
	if _, err := f.pipeline.RunOnce(ctx); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}

	meta, err := f.store.ProcessingMetadataFor(ctx, record.ID)
	if err != nil {
		t.Fatalf("ProcessingMetadataFor: %v", err)
	}
	if meta == nil || meta.Metadata.JobID != "run-7" {
		t.Fatalf("metadata = %+v, want replaced with run-7", meta)
	}
}
