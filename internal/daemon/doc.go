// Package daemon wires the record store, workflow manager and bot gateway
// into a long-running background service with single-instance locking.
package daemon
