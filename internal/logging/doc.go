// Package logging builds the slog loggers used across the daemon.
//
// Loggers are constructed once in the binaries via NewFromConfig and flow
// through constructors. Components derive their own loggers with
// NewComponentLogger, and stage code uses WithContext so every record carries
// the job id, stage name, and request correlation id from the context.
package logging
