package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"collectord/internal/testsupport"
)

func newActorServer(t *testing.T, finalStatus string, items string) *httptest.Server {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /acts/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test" {
			t.Errorf("missing api token on %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"id":"run-1","status":"RUNNING","defaultDatasetId":"ds-1"}}`))
	})
	mux.HandleFunc("GET /actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		status := "RUNNING"
		if polls.Add(1) >= 2 {
			status = finalStatus
		}
		w.Write([]byte(`{"data":{"id":"run-1","status":"` + status + `","defaultDatasetId":"ds-1"}}`))
	})
	mux.HandleFunc("GET /datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(items))
	})
	return httptest.NewServer(mux)
}

func newActorRetriever(t *testing.T, serverURL string) *ActorRetriever {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Retrieval.BaseURL = serverURL
	cfg.Retrieval.PollIntervalMillis = 1
	return NewActorRetriever(cfg)
}

func TestActorRetrieveReturnsDirectLocation(t *testing.T) {
	server := newActorServer(t, "SUCCEEDED",
		`[{"downloadURL":"https://cdn.example.com/a.mp4","url":"https://example.com/v/1"}]`)
	defer server.Close()

	result, err := newActorRetriever(t, server.URL).Retrieve(context.Background(), "https://example.com/v/1")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if result.Status != StatusSucceeded {
		t.Fatalf("status = %q, want succeeded", result.Status)
	}
	if result.DirectLocation != "https://cdn.example.com/a.mp4" {
		t.Fatalf("direct location = %q", result.DirectLocation)
	}
	if result.JobID != "run-1" || result.DatasetID != "ds-1" || result.ResultCount != 1 {
		t.Fatalf("result metadata = %+v", result)
	}
}

func TestActorRetrieveWithoutItemsSucceedsWithoutLocation(t *testing.T) {
	server := newActorServer(t, "SUCCEEDED", `[]`)
	defer server.Close()

	result, err := newActorRetriever(t, server.URL).Retrieve(context.Background(), "https://example.com/v/2")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if result.Status != StatusSucceeded || result.DirectLocation != "" || result.ResultCount != 0 {
		t.Fatalf("result = %+v, want succeeded with no location", result)
	}
}

func TestActorRetrieveFailedRunIsNotAnError(t *testing.T) {
	server := newActorServer(t, "FAILED", `[]`)
	defer server.Close()

	result, err := newActorRetriever(t, server.URL).Retrieve(context.Background(), "https://example.com/v/3")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if result.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
}

func TestDirectRetrieveProbesReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
	}))
	defer server.Close()

	retriever := NewDirectRetriever(testsupport.NewConfig(t))
	result, err := retriever.Retrieve(context.Background(), server.URL+"/v.mp4")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if result.Status != StatusSucceeded || result.DirectLocation != server.URL+"/v.mp4" {
		t.Fatalf("result = %+v", result)
	}
}

func TestDirectRetrieveMarksUnreachableReferenceFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	retriever := NewDirectRetriever(testsupport.NewConfig(t))
	result, err := retriever.Retrieve(context.Background(), server.URL+"/missing")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if result.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
}

func TestNewSelectsStrategyFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetrievalStrategy("direct"))
	retriever, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := retriever.(*DirectRetriever); !ok {
		t.Fatalf("retriever = %T, want *DirectRetriever", retriever)
	}

	cfg.Retrieval.Strategy = "scraper"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestDownloadStreamsToStagingFile(t *testing.T) {
	payload := strings.Repeat("video-bytes ", 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	downloader := NewDownloader(testsupport.NewConfig(t))
	path, err := downloader.Download(context.Background(), server.URL+"/clip")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}
	if string(data) != payload {
		t.Fatal("staged file content mismatch")
	}
	if !strings.HasSuffix(path, ".mp4") {
		t.Fatalf("staged path %q lacks .mp4 suffix", path)
	}
}

func TestDownloadFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	downloader := NewDownloader(testsupport.NewConfig(t))
	if _, err := downloader.Download(context.Background(), server.URL+"/clip"); err == nil {
		t.Fatal("expected error for http 410")
	}
}
