// Package logging assembles structured slog loggers and formatting helpers used
// across partscope.
//
// It owns the configurable console/JSON handlers, fans records out to stdout
// and the service log file, and exposes context-aware helpers so workflow and
// HTTP code automatically tag log lines with item IDs, operation names, and
// correlation IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
