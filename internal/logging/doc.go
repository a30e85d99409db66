// Package logging assembles the structured slog loggers used across
// loopfetch.
//
// It owns the configurable console/JSON handlers, centralizes level parsing,
// and exposes shared attribute helpers so every component tags log lines with
// the same field names. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
