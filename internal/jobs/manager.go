package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"prompter/internal/config"
	"prompter/internal/logging"
	"prompter/internal/services"
	"prompter/internal/textutil"
)

// inputName is the fixed name of the persisted upload inside a job directory.
const inputName = "input.pptx"

// Manager owns the job records and their on-disk artifacts. Submission,
// status, download, and cleanup never block on the worker; they only touch
// the store and the per-job directory.
type Manager struct {
	cfg    *config.Config
	store  *Store
	logger *slog.Logger
}

// NewManager builds a Manager on top of an open store.
func NewManager(cfg *config.Config, store *Store, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, store: store, logger: logging.NewComponentLogger(logger, "jobs")}
}

// Submit validates and persists an upload, then creates a queued job. The
// upload is rejected before any job exists when the name is not a .pptx or
// the stream exceeds the configured ceiling.
func (m *Manager) Submit(ctx context.Context, sourceName string, upload io.Reader) (*Job, error) {
	if !strings.EqualFold(filepath.Ext(sourceName), ".pptx") {
		return nil, services.Wrap(services.ErrInvalidInput, "jobs", "submit",
			fmt.Sprintf("unsupported file type %q, expected .pptx", filepath.Ext(sourceName)), nil)
	}

	id := uuid.NewString()
	dir := filepath.Join(m.cfg.Paths.WorkDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job directory: %w", err)
	}

	inputPath := filepath.Join(dir, inputName)
	written, err := m.persistUpload(inputPath, upload)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if written == 0 {
		_ = os.RemoveAll(dir)
		return nil, services.Wrap(services.ErrInvalidInput, "jobs", "submit", "upload is empty", nil)
	}

	job := &Job{
		ID:         id,
		SourceName: textutil.SanitizeFileName(sourceName),
		InputPath:  inputPath,
	}
	if err := m.store.Insert(ctx, job); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	m.logger.Info("job queued",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("source", job.SourceName),
		logging.Int64("bytes", written))
	return job, nil
}

func (m *Manager) persistUpload(path string, upload io.Reader) (int64, error) {
	limit := m.cfg.MaxUploadBytes()
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("persist upload: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(upload, limit+1))
	if err != nil {
		return 0, fmt.Errorf("persist upload: %w", err)
	}
	if written > limit {
		return 0, services.Wrap(services.ErrInvalidInput, "jobs", "submit",
			fmt.Sprintf("upload exceeds the %d MiB ceiling", m.cfg.Conversion.MaxUploadMiB), nil)
	}
	return written, nil
}

// Status returns the current job record.
func (m *Manager) Status(ctx context.Context, id string) (*Job, error) {
	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "status", fmt.Sprintf("unknown job %s", id), nil)
	}
	return job, nil
}

// List returns every tracked job, newest first.
func (m *Manager) List(ctx context.Context) ([]*Job, error) {
	return m.store.List(ctx)
}

// Download returns the job once its output is ready. Querying an unfinished
// job reports not-ready; an unknown id reports not-found.
func (m *Manager) Download(ctx context.Context, id string) (*Job, error) {
	job, err := m.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusCompleted {
		return nil, services.Wrap(services.ErrNotReady, "jobs", "download",
			fmt.Sprintf("job %s is %s", id, job.Status), nil)
	}
	return job, nil
}

// Cleanup removes a job's artifacts and record. Unknown ids are a no-op, so
// repeated cleanup is safe.
func (m *Manager) Cleanup(ctx context.Context, id string) error {
	job, err := m.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}
	if dir := filepath.Dir(job.InputPath); dir != "." && dir != string(filepath.Separator) {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove job directory: %w", err)
		}
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("job cleaned up", logging.String(logging.FieldJobID, id))
	return nil
}

// ExpireOnce removes every job idle past the retention window, regardless of
// state, and reports how many were reclaimed.
func (m *Manager) ExpireOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-time.Duration(m.cfg.Conversion.RetentionHours) * time.Hour)
	expired, err := m.store.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, job := range expired {
		if err := m.Cleanup(ctx, job.ID); err != nil {
			m.logger.Warn("expire failed",
				logging.String(logging.FieldJobID, job.ID), logging.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("expired jobs reclaimed", logging.Int("count", removed))
	}
	return removed, nil
}
