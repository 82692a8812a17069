package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"collectord/internal/config"
	"collectord/internal/logging"
	"collectord/internal/notifications"
	"collectord/internal/services"
	"collectord/internal/store"
)

// Normalizer resolves raw category text into the fixed vocabulary.
type Normalizer interface {
	Normalize(ctx context.Context, raw string) (string, error)
}

// Summary counts the outcome of one publishing pass.
type Summary struct {
	Published int
	Failed    int
}

// Publisher drains pending records into the remote dataset.
type Publisher struct {
	store      *store.Store
	normalizer Normalizer
	notifier   notifications.Service
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a publisher from configuration.
func New(cfg *config.Config, st *store.Store, normalizer Normalizer, notifier notifications.Service, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	timeout := time.Duration(cfg.Dataset.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Publisher{
		store:      st,
		normalizer: normalizer,
		notifier:   notifier,
		apiURL:     cfg.Dataset.APIURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(logger, "publisher"),
	}
}

type datasetEntry struct {
	PostURL     string `json:"post_url"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// RunOnce publishes every pending record that has not been uploaded yet.
// A record that the remote API rejects stays pending for the next pass;
// one bad record never stops the rest of the batch.
func (p *Publisher) RunOnce(ctx context.Context) (Summary, error) {
	if p.apiURL == "" {
		return Summary{}, services.Wrap(services.ErrConfiguration, "publisher", "run",
			"dataset api_url is not configured", nil)
	}

	records, err := p.store.ListByUploadStatus(ctx, store.UploadStatusNotUploaded)
	if err != nil {
		return Summary{}, fmt.Errorf("list pending records: %w", err)
	}

	var summary Summary
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := p.publish(ctx, record); err != nil {
			summary.Failed++
			p.logger.Error("publish failed",
				logging.Int64("record_id", record.ID),
				logging.String("reference", record.Reference),
				logging.Error(err))
			if notifyErr := p.notifier.NotifyRecordFailed(ctx, record.Reference, err); notifyErr != nil {
				p.logger.Warn("failure notification failed", logging.Error(notifyErr))
			}
			continue
		}
		summary.Published++
	}
	return summary, nil
}

func (p *Publisher) publish(ctx context.Context, record *store.Record) error {
	category, err := p.normalizer.Normalize(ctx, record.Category)
	if err != nil {
		if !errors.Is(err, services.ErrClassification) {
			return err
		}
		// Retry budget exhausted: publish under the catch-all label.
		p.logger.Warn("classification exhausted, using catch-all label",
			logging.Int64("record_id", record.ID),
			logging.String("raw_category", record.Category))
		category = "other"
	}

	payload, err := json.Marshal([]datasetEntry{{
		PostURL:     record.Reference,
		Date:        record.RecordedAt.Format(store.RecordedAtLayout),
		Category:    category,
		Description: record.Description,
	}})
	if err != nil {
		return fmt.Errorf("marshal dataset entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "publisher", "send entry", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return services.Wrap(services.ErrTransient, "publisher", "send entry",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	promoted, err := p.store.PromoteToArchive(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("promote record %d: %w", record.ID, err)
	}
	if !promoted {
		p.logger.Warn("record was already archived",
			logging.Int64("record_id", record.ID))
		return nil
	}

	p.logger.Info("record published",
		logging.Int64("record_id", record.ID),
		logging.String("category", category),
		logging.String("reference", record.Reference))
	if notifyErr := p.notifier.NotifyRecordPublished(ctx, record.Reference, category); notifyErr != nil {
		p.logger.Warn("publish notification failed", logging.Error(notifyErr))
	}
	return nil
}
