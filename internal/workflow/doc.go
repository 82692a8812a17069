// Package workflow coordinates the background processing loop. Each tick
// runs a publishing pass over pending records and a fulfillment pass over
// archived records, then sleeps until the next poll interval. The manager
// owns the loop's lifecycle and exposes a snapshot of its last batch for
// status reporting.
package workflow
