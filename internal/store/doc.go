// Package store persists submitted records in SQLite and exposes the
// transitions that drive their lifecycle.
//
// A record moves through two stages: pending (freshly ingested, awaiting
// publication to the remote dataset) and archived (published, awaiting media
// retrieval). Rather than relocating rows between tables, a single records
// table carries a stage discriminant; a partial unique index enforces the
// (submitter_id, reference, category) identity for pending rows only, so an
// archived record may legitimately reappear when the same reference is
// resubmitted. Status transitions are guarded UPDATE statements: an illegal
// transition affects zero rows instead of corrupting state.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when statuses or columns change, update schema.sql and bump schemaVersion.
package store
