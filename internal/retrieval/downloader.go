package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"collectord/internal/config"
	"collectord/internal/services"
)

// Downloader streams a direct location to a transient file under the
// staging directory. Callers own cleanup of the returned path.
type Downloader struct {
	stagingDir string
	httpClient *http.Client
}

// NewDownloader builds a downloader writing into the configured staging
// directory.
func NewDownloader(cfg *config.Config) *Downloader {
	timeout := time.Duration(cfg.Retrieval.DownloadTimeout) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Downloader{
		stagingDir: cfg.Paths.StagingDir,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Download fetches the location into a uniquely named staging file and
// returns the local path. A partial file is removed on failure.
func (d *Downloader) Download(ctx context.Context, location string) (string, error) {
	if err := os.MkdirAll(d.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "download", "", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "download", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "download",
			fmt.Sprintf("http %d from %s", resp.StatusCode, location), nil)
	}

	path := filepath.Join(d.stagingDir, uuid.NewString()+".mp4")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(path)
		return "", services.Wrap(services.ErrRetrieval, "retrieval", "download",
			fmt.Sprintf("stream %s", location), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staging file: %w", err)
	}
	return path, nil
}
