// Package pipeline fulfills archived records: retrieve the referenced
// media, archive it to object storage, clean up transient files, and
// mark the final download status. Records are processed sequentially
// with a pacing delay between retrieval calls.
package pipeline
