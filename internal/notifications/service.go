package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"collectord/internal/config"
)

const userAgent = "Collectord/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyRecordPublished(ctx context.Context, reference, category string) error
	NotifyRecordFulfilled(ctx context.Context, reference, remoteLocation string) error
	NotifyBatchCompleted(ctx context.Context, published, fulfilled, failed int, duration time.Duration) error
	NotifyRecordFailed(ctx context.Context, reference string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		sendPublished: cfg.Notifications.Published,
		sendBatches:   cfg.Notifications.Batches,
		sendErrors:    cfg.Notifications.Errors,
		sendFulfilled: cfg.Notifications.Published,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	sendPublished bool
	sendBatches   bool
	sendErrors    bool
	sendFulfilled bool
}

func (n *ntfyService) NotifyRecordPublished(ctx context.Context, reference, category string) error {
	if !n.sendPublished {
		return nil
	}
	data := payload{
		title:   "Collectord - Published",
		message: fmt.Sprintf("Record published as %s: %s", strings.TrimSpace(category), strings.TrimSpace(reference)),
		tags:    []string{"collectord", "publish", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordFulfilled(ctx context.Context, reference, remoteLocation string) error {
	if !n.sendFulfilled {
		return nil
	}
	reference = strings.TrimSpace(reference)
	message := fmt.Sprintf("Media archived: %s", reference)
	if remoteLocation = strings.TrimSpace(remoteLocation); remoteLocation != "" {
		message = fmt.Sprintf("%s\nStored at: %s", message, remoteLocation)
	}
	data := payload{
		title:   "Collectord - Archived",
		message: message,
		tags:    []string{"collectord", "archive", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, published, fulfilled, failed int, duration time.Duration) error {
	if !n.sendBatches {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Collectord - Batch Complete"
		message = fmt.Sprintf("Batch complete: %d published, %d fulfilled in %s", published, fulfilled, durationText)
	} else {
		title = "Collectord - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d published, %d fulfilled, %d failed in %s", published, fulfilled, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"collectord", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordFailed(ctx context.Context, reference string, err error) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if reference = strings.TrimSpace(reference); reference != "" {
		builder.WriteString(" with ")
		builder.WriteString(reference)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Collectord - Error",
		message:  builder.String(),
		tags:     []string{"collectord", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Collectord - Test",
		message:  "Notification system test",
		tags:     []string{"collectord", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRecordPublished(context.Context, string, string) error { return nil }
func (noopService) NotifyRecordFulfilled(context.Context, string, string) error { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyRecordFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
