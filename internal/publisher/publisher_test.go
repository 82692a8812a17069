package publisher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"collectord/internal/services"
	"collectord/internal/store"
	"collectord/internal/testsupport"
)

type stubNormalizer struct {
	labels map[string]string
	err    error
}

func (s *stubNormalizer) Normalize(_ context.Context, raw string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if label, ok := s.labels[raw]; ok {
		return label, nil
	}
	return raw, nil
}

func newPublisher(t *testing.T, serverURL string, normalizer Normalizer) (*Publisher, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDatasetURL(serverURL))
	st := testsupport.MustOpenStore(t, cfg)
	return New(cfg, st, normalizer, nil, nil), st
}

func TestRunOncePublishesAndArchives(t *testing.T) {
	var entries []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []map[string]string
		if err := json.Unmarshal(body, &batch); err != nil {
			t.Errorf("unmarshal payload: %v", err)
		}
		entries = append(entries, batch...)
	}))
	defer server.Close()

	normalizer := &stubNormalizer{labels: map[string]string{"food": "restaurant"}}
	publisher, st := newPublisher(t, server.URL, normalizer)
	ctx := context.Background()

	record := testsupport.SeedRecord(t, st, 42, "https://example.com/v/1", "food")

	summary, err := publisher.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Published != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(entries) != 1 {
		t.Fatalf("sent %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry["post_url"] != "https://example.com/v/1" || entry["category"] != "restaurant" {
		t.Fatalf("entry = %v", entry)
	}

	archived, err := st.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if archived.Stage != store.StageArchived || archived.UploadStatus != store.UploadStatusUploaded {
		t.Fatalf("record after publish = %+v", archived)
	}

	pending, err := st.ListByUploadStatus(ctx, store.UploadStatusNotUploaded)
	if err != nil {
		t.Fatalf("ListByUploadStatus: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("%d records still pending, want 0", len(pending))
	}
}

func TestRunOnceFailsClosedToCatchAllOnExhaustedClassification(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []map[string]string
		json.Unmarshal(body, &batch)
		if len(batch) == 1 {
			got = batch[0]["category"]
		}
	}))
	defer server.Close()

	normalizer := &stubNormalizer{
		err: services.Wrap(services.ErrClassification, "classify", "normalize", "exhausted", nil),
	}
	publisher, st := newPublisher(t, server.URL, normalizer)

	testsupport.SeedRecord(t, st, 7, "https://example.com/v/2", "unclassifiable")

	summary, err := publisher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Published != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if got != "other" {
		t.Fatalf("category = %q, want %q", got, "other")
	}
}

func TestRunOnceLeavesRejectedRecordsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "schema mismatch", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	publisher, st := newPublisher(t, server.URL, &stubNormalizer{})
	ctx := context.Background()

	record := testsupport.SeedRecord(t, st, 9, "https://example.com/v/3", "fun")

	summary, err := publisher.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Published != 0 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	kept, err := st.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if kept.Stage != store.StagePending || kept.UploadStatus != store.UploadStatusNotUploaded {
		t.Fatalf("record after rejected publish = %+v", kept)
	}
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
		}
	}))
	defer server.Close()

	publisher, st := newPublisher(t, server.URL, &stubNormalizer{})

	testsupport.SeedRecord(t, st, 1, "https://example.com/v/4", "fun")
	testsupport.SeedRecord(t, st, 2, "https://example.com/v/5", "beauty")

	summary, err := publisher.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Published != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunOnceRequiresDatasetURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Dataset.APIURL = ""
	st := testsupport.MustOpenStore(t, cfg)
	publisher := New(cfg, st, &stubNormalizer{}, nil, nil)

	if _, err := publisher.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error without dataset api url")
	}
}
