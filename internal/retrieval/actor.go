package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"collectord/internal/config"
	"collectord/internal/services"
)

const (
	runStatusSucceeded = "SUCCEEDED"
	runStatusFailed    = "FAILED"
	runStatusAborted   = "ABORTED"
	runStatusTimedOut  = "TIMED-OUT"
)

// ActorRetriever triggers a hosted scraping actor for the reference, polls
// the run until it reaches a terminal status, and reads the run's dataset
// for a direct download location.
type ActorRetriever struct {
	baseURL      string
	token        string
	actorID      string
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewActorRetriever builds the actor strategy from configuration.
func NewActorRetriever(cfg *config.Config) *ActorRetriever {
	timeout := time.Duration(cfg.Retrieval.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	pollInterval := time.Duration(cfg.Retrieval.PollIntervalMillis) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &ActorRetriever{
		baseURL:      strings.TrimRight(cfg.Retrieval.BaseURL, "/"),
		token:        cfg.Retrieval.APIToken,
		actorID:      cfg.Retrieval.ActorID,
		pollInterval: pollInterval,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type actorRun struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

type datasetItem struct {
	DownloadURLUpper string `json:"downloadURL"`
	DownloadURLLower string `json:"downloadUrl"`
	URL              string `json:"url"`
}

func (i datasetItem) location() string {
	switch {
	case i.DownloadURLUpper != "":
		return i.DownloadURLUpper
	case i.DownloadURLLower != "":
		return i.DownloadURLLower
	default:
		return i.URL
	}
}

// Retrieve starts an actor run for the reference and waits for it to finish.
// A run that ends in any non-success status yields a failed result, not an
// error; errors are reserved for the API itself misbehaving.
func (r *ActorRetriever) Retrieve(ctx context.Context, reference string) (Result, error) {
	run, err := r.startRun(ctx, reference)
	if err != nil {
		return Result{}, err
	}

	run, err = r.waitForRun(ctx, run)
	if err != nil {
		return Result{}, err
	}
	if run.Data.Status != runStatusSucceeded {
		return Result{
			Status: StatusFailed,
			JobID:  run.Data.ID,
		}, nil
	}

	items, err := r.datasetItems(ctx, run.Data.DefaultDatasetID)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Status:      StatusSucceeded,
		JobID:       run.Data.ID,
		DatasetID:   run.Data.DefaultDatasetID,
		ResultCount: len(items),
	}
	if len(items) > 0 {
		result.DirectLocation = items[0].location()
	}
	return result, nil
}

func (r *ActorRetriever) startRun(ctx context.Context, reference string) (actorRun, error) {
	input := map[string]any{
		"urls":        []map[string]string{{"url": reference}},
		"quality":     "best",
		"format":      "mp4",
		"concurrency": 5,
	}
	body, err := json.Marshal(input)
	if err != nil {
		return actorRun{}, fmt.Errorf("marshal actor input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/acts/%s/runs?token=%s",
		r.baseURL, url.PathEscape(r.actorID), url.QueryEscape(r.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return actorRun{}, fmt.Errorf("build actor run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var run actorRun
	if err := r.doJSON(req, &run); err != nil {
		return actorRun{}, services.Wrap(services.ErrRetrieval, "retrieval", "start actor run", "", err)
	}
	if run.Data.ID == "" {
		return actorRun{}, services.Wrap(services.ErrRetrieval, "retrieval", "start actor run",
			"response carried no run id", nil)
	}
	return run, nil
}

func (r *ActorRetriever) waitForRun(ctx context.Context, run actorRun) (actorRun, error) {
	for !isTerminalRunStatus(run.Data.Status) {
		select {
		case <-ctx.Done():
			return actorRun{}, ctx.Err()
		case <-time.After(r.pollInterval):
		}

		endpoint := fmt.Sprintf("%s/actor-runs/%s?token=%s",
			r.baseURL, url.PathEscape(run.Data.ID), url.QueryEscape(r.token))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return actorRun{}, fmt.Errorf("build run status request: %w", err)
		}
		if err := r.doJSON(req, &run); err != nil {
			return actorRun{}, services.Wrap(services.ErrRetrieval, "retrieval", "poll actor run", "", err)
		}
	}
	return run, nil
}

func (r *ActorRetriever) datasetItems(ctx context.Context, datasetID string) ([]datasetItem, error) {
	if datasetID == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/datasets/%s/items?token=%s",
		r.baseURL, url.PathEscape(datasetID), url.QueryEscape(r.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset items request: %w", err)
	}

	var items []datasetItem
	if err := r.doJSON(req, &items); err != nil {
		return nil, services.Wrap(services.ErrRetrieval, "retrieval", "read dataset items", "", err)
	}
	return items, nil
}

func (r *ActorRetriever) doJSON(req *http.Request, out any) error {
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isTerminalRunStatus(status string) bool {
	switch status {
	case runStatusSucceeded, runStatusFailed, runStatusAborted, runStatusTimedOut:
		return true
	default:
		return false
	}
}
