package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks uploads rejected before any conversion work:
	// wrong extension, empty file, or a size over the configured ceiling.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStructuralRead marks presentations whose package structure could
	// not be read (corrupt zip, missing parts, malformed XML).
	ErrStructuralRead = errors.New("structural read error")
	// ErrResourceLimit marks work refused because the single-job capacity
	// bound is already taken.
	ErrResourceLimit = errors.New("resource limit exceeded")
	// ErrRendererUnavailable marks thumbnail renderer failures that the
	// placeholder tier could not absorb.
	ErrRendererUnavailable = errors.New("renderer unavailable")
	// ErrNotFound marks lookups of unknown or already-expired jobs.
	ErrNotFound = errors.New("not found")
	// ErrNotReady marks download attempts against jobs that have not
	// completed yet.
	ErrNotReady = errors.New("not ready")
	// ErrTimeout marks external commands cancelled by their attempt budget.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStructuralRead
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the stable identifier recorded on failed jobs and sent over
// the API for the given error. Unrecognized errors report as internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrStructuralRead):
		return "structural_read_error"
	case errors.Is(err, ErrResourceLimit):
		return "resource_limit_exceeded"
	case errors.Is(err, ErrRendererUnavailable):
		return "renderer_unavailable"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
