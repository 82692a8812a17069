// Package publisher sends pending records to the remote dataset API and
// promotes them to the archived stage once the remote side accepted them.
package publisher
