// Package jobs tracks conversion requests from upload to terminal outcome.
//
// A Store persists job records in SQLite. A Manager handles the caller-facing
// operations (submit, status, download, cleanup, expiry) and never blocks on
// a running conversion. A Worker is the single queue consumer: it claims the
// oldest queued job, runs the conversion pipeline, and records the result on
// the job. Failed conversions are part of normal operation and never stop
// the worker.
package jobs
