// Package api defines the HTTP payloads exchanged between the daemon and
// its clients, plus the client used by the CLI.
package api

import (
	"time"

	"prompter/internal/jobs"
)

// JobPayload is the wire representation of one conversion job.
type JobPayload struct {
	ID           string    `json:"id"`
	SourceName   string    `json:"source_name"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromJob converts a stored job into its wire representation. Filesystem
// paths stay server-side.
func FromJob(job *jobs.Job) JobPayload {
	return JobPayload{
		ID:           job.ID,
		SourceName:   job.SourceName,
		Status:       string(job.Status),
		ErrorKind:    job.ErrorKind,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobPayload `json:"job"`
}

// JobListResponse wraps the full job listing.
type JobListResponse struct {
	Jobs []JobPayload `json:"jobs"`
}

// DependencyStatus reports one external binary's availability.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus reports daemon runtime information.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	JobDBPath    string             `json:"job_db_path"`
	LockFilePath string             `json:"lock_file_path"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
