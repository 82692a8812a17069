package testsupport

import (
	"context"
	"testing"
	"time"

	"collectord/internal/config"
	"collectord/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

// SeedRecord upserts a pending record with sensible defaults and returns the
// stored row.
func SeedRecord(t testing.TB, st *store.Store, submitterID int64, reference, category string) *store.Record {
	t.Helper()

	ctx := context.Background()
	rec := &store.Record{
		SubmitterID:   submitterID,
		SubmitterName: "tester",
		Category:      category,
		Reference:     reference,
		RecordedAt:    time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
		Description:   "seeded record",
	}
	if err := st.Upsert(ctx, rec); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	records, err := st.ListByUploadStatus(ctx, store.UploadStatusNotUploaded)
	if err != nil {
		t.Fatalf("list seeded records: %v", err)
	}
	for _, stored := range records {
		if stored.SubmitterID == submitterID && stored.Reference == reference && stored.Category == category {
			return stored
		}
	}
	t.Fatalf("seeded record not found: %s/%s", reference, category)
	return nil
}

// SeedArchivedRecord seeds a record and promotes it to the archived stage.
func SeedArchivedRecord(t testing.TB, st *store.Store, submitterID int64, reference, category string) *store.Record {
	t.Helper()

	rec := SeedRecord(t, st, submitterID, reference, category)
	ctx := context.Background()
	if _, err := st.PromoteToArchive(ctx, rec.ID); err != nil {
		t.Fatalf("seed promote: %v", err)
	}
	archived, err := st.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("fetch archived record: %v", err)
	}
	return archived
}
