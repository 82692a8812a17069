// Package intake collects submissions from chat messages. A submission
// arrives as two messages in either order, a media URL and a descriptor
// line, buffered per submitter until both are present.
package intake
