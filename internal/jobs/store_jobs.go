package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "id, source_name, input_path, output_path, status, error_kind, error_message, created_at, updated_at"

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var (
		job                  Job
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&job.ID, &job.SourceName, &job.InputPath, &job.OutputPath,
		&status, &job.ErrorKind, &job.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return &job, nil
}

// Insert persists a freshly submitted job in the queued state.
func (s *Store) Insert(ctx context.Context, job *Job) error {
	now := formatTime(time.Now())
	if job.Status == "" {
		job.Status = StatusQueued
	}
	if err := retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(ensureContext(ctx),
			`INSERT INTO jobs (id, source_name, input_path, output_path, status, error_kind, error_message, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, '', '', ?, ?)`,
			job.ID, job.SourceName, job.InputPath, job.OutputPath, string(job.Status), now, now)
		return err
	}); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	job.CreatedAt = parseTime(now)
	job.UpdatedAt = parseTime(now)
	return nil
}

// GetByID fetches one job. A missing id returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// List returns all jobs, newest first.
func (s *Store) List(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// NextQueued returns the oldest queued job, or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+jobColumns+" FROM jobs WHERE status = ? ORDER BY created_at ASC LIMIT 1",
		string(StatusQueued))
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued job: %w", err)
	}
	return job, nil
}

// Claim atomically moves a queued job to processing. It reports false when
// another actor already moved the job, which keeps the at-most-one-running
// guarantee even if two workers ever raced.
func (s *Store) Claim(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		"UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(StatusProcessing), formatTime(time.Now()), id, string(StatusQueued))
	if err != nil {
		return false, fmt.Errorf("claim job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim job %s: %w", id, err)
	}
	return affected == 1, nil
}

// MarkCompleted finishes a processing job with its output location. Terminal
// states are immutable, so the transition is guarded on processing.
func (s *Store) MarkCompleted(ctx context.Context, id, outputPath string) error {
	return s.finish(ctx, id, StatusCompleted, outputPath, "", "")
}

// MarkFailed finishes a processing job with an error classification and a
// human-readable summary.
func (s *Store) MarkFailed(ctx context.Context, id, kind, message string) error {
	return s.finish(ctx, id, StatusFailed, "", kind, message)
}

func (s *Store) finish(ctx context.Context, id string, status Status, outputPath, kind, message string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, output_path = ?, error_kind = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		string(status), outputPath, kind, message, formatTime(time.Now()), id, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	if affected != 1 {
		return fmt.Errorf("finish job %s: job is not processing", id)
	}
	return nil
}

// Delete removes a job record. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := retryOnBusy(ensureContext(ctx), func() error {
		_, err := s.db.ExecContext(ensureContext(ctx), "DELETE FROM jobs WHERE id = ?", id)
		return err
	}); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// ListOlderThan returns jobs whose updated_at precedes the cutoff, any state.
func (s *Store) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*Job, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+jobColumns+" FROM jobs WHERE updated_at < ? ORDER BY updated_at ASC",
		formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("list expired jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// ResetStuckProcessing returns processing jobs to queued. Called on daemon
// start so a crash mid-conversion does not strand a job forever.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		"UPDATE jobs SET status = ?, updated_at = ? WHERE status = ?",
		string(StatusQueued), formatTime(time.Now()), string(StatusProcessing))
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}
