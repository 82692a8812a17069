package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collectord/internal/config"
	"collectord/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRecordPublished(context.Background(), "https://example.com/v/1", "fun"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "record published",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRecordPublished(context.Background(), "https://example.com/v/1", "restaurant")
			},
			expectTitle:   "Collectord - Published",
			expectMessage: "Record published as restaurant: https://example.com/v/1",
			expectTags:    "collectord,publish,completed",
		},
		{
			name: "record fulfilled",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRecordFulfilled(context.Background(), "https://example.com/v/2", "https://files.example.com/a.mp4")
			},
			expectTitle:   "Collectord - Archived",
			expectMessage: "Media archived: https://example.com/v/2\nStored at: https://files.example.com/a.mp4",
			expectTags:    "collectord,archive,completed",
		},
		{
			name: "batch with failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifyBatchCompleted(context.Background(), 3, 2, 1, 90*time.Second)
			},
			expectTitle:   "Collectord - Batch Complete (with errors)",
			expectMessage: "Batch complete: 3 published, 2 fulfilled, 1 failed in 1m30s",
			expectTags:    "collectord,batch,completed",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRecordFailed(context.Background(), "https://example.com/v/3", errors.New("retrieval timed out"))
			},
			expectTitle:    "Collectord - Error",
			expectMessage:  "Error with https://example.com/v/3: retrieval timed out",
			expectTags:     "collectord,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5
			cfg.Notifications.Published = true
			cfg.Notifications.Batches = true
			cfg.Notifications.Errors = true

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSuppressesDisabledEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Published = false
	cfg.Notifications.Batches = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	if err := svc.NotifyRecordPublished(ctx, "ref", "fun"); err != nil {
		t.Fatalf("suppressed publish event returned error: %v", err)
	}
	if err := svc.NotifyBatchCompleted(ctx, 1, 1, 0, time.Second); err != nil {
		t.Fatalf("suppressed batch event returned error: %v", err)
	}
	if err := svc.NotifyRecordFailed(ctx, "ref", errors.New("boom")); err != nil {
		t.Fatalf("suppressed error event returned error: %v", err)
	}
}
