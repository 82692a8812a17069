// Command collectord is the CLI for the record collection service. It can
// run the background daemon, execute one-shot publishing and fulfillment
// passes, inspect the record store, and manage configuration.
package main
