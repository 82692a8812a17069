// Package logging builds slog loggers for collectord.
//
// Two output formats are supported: a human-oriented console format used when
// running interactively, and JSON for log shipping. Components attach a
// stable "component" attribute via NewComponentLogger so records can be
// filtered per subsystem.
package logging
