package jobs

import "time"

// Status describes where a conversion job sits in its lifecycle.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one conversion request tracked from submission to terminal outcome.
// OutputPath is set only once the job completes; ErrorKind and ErrorMessage
// only once it fails.
type Job struct {
	ID           string
	SourceName   string
	InputPath    string
	OutputPath   string
	Status       Status
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
