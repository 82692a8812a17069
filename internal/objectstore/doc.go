// Package objectstore talks to the remote file hosting endpoint that
// archived media is uploaded to.
package objectstore
