// Package logging builds the slog loggers used by myonorm.
//
// Two handlers are available: a compact console handler for terminals and a
// JSON handler for files and pipelines. The "auto" format picks between them
// based on whether stderr is a terminal. Context helpers attach run, session,
// exercise, and channel identifiers so worker goroutines log with the same
// shape as the command that spawned them.
package logging
