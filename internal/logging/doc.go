// Package logging assembles structured slog loggers and formatting helpers used
// across slakhprep.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so preprocessing code can tag log
// lines with run IDs, splits, and track names automatically. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
