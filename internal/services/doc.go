// Package services defines the shared error taxonomy used across the
// collectord components.
//
// Components wrap failures with one of the exported sentinel markers so
// callers can classify them with errors.Is without inspecting message text.
// The markers mirror the failure modes of the record lifecycle: intake
// validation, classification retry exhaustion, media retrieval, archival to
// object storage, and store integrity violations.
package services
