// Package logging assembles the structured slog loggers used across mural.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so cycle code automatically
// tags log lines with the active cycle ID and stage. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
