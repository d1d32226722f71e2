// Package daemon hosts the long-running conversion service: the single
// worker, the retention sweeper, and the HTTP API, all behind a file lock
// that keeps a second daemon from starting against the same state.
package daemon
