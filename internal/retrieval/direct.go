package retrieval

import (
	"context"
	"net/http"
	"time"

	"collectord/internal/config"
	"collectord/internal/services"
)

// DirectRetriever treats the reference itself as the download location.
// It probes the URL with a HEAD request so unreachable references fail
// at retrieval time rather than mid-download.
type DirectRetriever struct {
	httpClient *http.Client
}

// NewDirectRetriever builds the direct strategy from configuration.
func NewDirectRetriever(cfg *config.Config) *DirectRetriever {
	timeout := time.Duration(cfg.Retrieval.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &DirectRetriever{httpClient: &http.Client{Timeout: timeout}}
}

// Retrieve confirms the reference answers and returns it as the direct
// location.
func (r *DirectRetriever) Retrieve(ctx context.Context, reference string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, reference, nil)
	if err != nil {
		return Result{}, services.Wrap(services.ErrRetrieval, "retrieval", "probe reference", "", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Result{Status: StatusFailed}, nil
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Status: StatusFailed}, nil
	}
	return Result{
		Status:         StatusSucceeded,
		DirectLocation: reference,
		ResultCount:    1,
	}, nil
}
