// Package logging configures structured logging for the daemon and CLI.
//
// Loggers are log/slog instances built from configuration: console (text) or
// JSON output, level filtering, and optional duplication into the log
// directory. Standardized field keys keep queueing-decision logs correlatable
// across components.
package logging
