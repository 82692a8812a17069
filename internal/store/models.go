package store

import (
	"strings"
	"time"
)

// Stage identifies where a record sits in the pipeline.
type Stage string

const (
	StagePending  Stage = "pending"
	StageArchived Stage = "archived"
)

// UploadStatus tracks publication of a record to the remote dataset.
type UploadStatus string

const (
	UploadStatusNotUploaded UploadStatus = "not_uploaded"
	UploadStatusUploaded    UploadStatus = "uploaded"
)

// DownloadStatus tracks retrieval and archival of the referenced media.
// Every value other than not_downloaded is terminal; only an explicit
// operator reset returns a record to not_downloaded.
type DownloadStatus string

const (
	DownloadStatusNotDownloaded DownloadStatus = "not_downloaded"
	DownloadStatusDownloaded    DownloadStatus = "downloaded"
	DownloadStatusProcessed     DownloadStatus = "processed"
	DownloadStatusFailed        DownloadStatus = "failed"
)

var downloadStatuses = []DownloadStatus{
	DownloadStatusNotDownloaded,
	DownloadStatusDownloaded,
	DownloadStatusProcessed,
	DownloadStatusFailed,
}

var downloadStatusSet = func() map[DownloadStatus]struct{} {
	set := make(map[DownloadStatus]struct{}, len(downloadStatuses))
	for _, status := range downloadStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllDownloadStatuses returns the ordered list of known download statuses.
func AllDownloadStatuses() []DownloadStatus {
	cp := make([]DownloadStatus, len(downloadStatuses))
	copy(cp, downloadStatuses)
	return cp
}

// ParseDownloadStatus converts a string into a known DownloadStatus.
func ParseDownloadStatus(value string) (DownloadStatus, bool) {
	normalized := DownloadStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := downloadStatusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a download status is terminal for the pipeline.
func (s DownloadStatus) IsTerminal() bool {
	return s != DownloadStatusNotDownloaded
}

// Record is a submitted media reference persisted in SQLite.
type Record struct {
	ID             int64
	Stage          Stage
	SubmitterID    int64
	SubmitterName  string
	Category       string
	Reference      string
	RecordedAt     time.Time
	Description    string
	UploadStatus   UploadStatus
	DownloadStatus DownloadStatus
	RemoteLocation string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HealthSummary describes aggregated record counts per lifecycle state.
type HealthSummary struct {
	Total         int
	Pending       int
	Archived      int
	NotDownloaded int
	Downloaded    int
	Processed     int
	Failed        int
}

// RecordedAtLayout is the storage format for the resolved submission date.
// It matches SQLite datetime notation.
const RecordedAtLayout = "2006-01-02 15:04:05"
