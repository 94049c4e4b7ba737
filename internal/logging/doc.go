// Package logging assembles the structured slog loggers used across groove.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes small attribute helpers so store and cache code can
// tag log lines with track identifiers and store paths without repeating
// slog boilerplate. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
