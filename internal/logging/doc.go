// Package logging builds the slog loggers used across the daemon and CLI.
//
// Two handler formats are supported: a compact console format for terminals
// and JSON for machine consumption. Helpers standardize attribute keys
// (component, job_id, stage) so log lines stay greppable, and WithContext
// lifts identifiers carried on a context into logger fields.
package logging
