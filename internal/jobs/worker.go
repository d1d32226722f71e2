package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"prompter/internal/config"
	"prompter/internal/logging"
	"prompter/internal/pipeline"
	"prompter/internal/services"
)

// errorMessageLimit bounds the failure summary stored on a job record.
const errorMessageLimit = 500

// Worker is the single consumer of the job queue. At most one conversion
// runs at a time, which bounds peak memory and external-process concurrency
// to one job's worth.
type Worker struct {
	cfg       *config.Config
	store     *Store
	converter *pipeline.Converter
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker builds a Worker.
func NewWorker(cfg *config.Config, store *Store, converter *pipeline.Converter, logger *slog.Logger) *Worker {
	return &Worker{
		cfg:       cfg,
		store:     store,
		converter: converter,
		logger:    logging.NewComponentLogger(logger, "worker"),
	}
}

// Start begins background processing.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the in-flight job to
// release.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	pollInterval := time.Duration(w.cfg.Workflow.QueuePollInterval) * time.Second
	retryInterval := time.Duration(w.cfg.Workflow.ErrorRetryInterval) * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := w.ProcessNext(ctx)
		if err != nil {
			w.logger.Error("queue poll failed", logging.Error(err))
			if !sleepCtx(ctx, retryInterval) {
				return
			}
			continue
		}
		if processed {
			continue
		}
		if !sleepCtx(ctx, pollInterval) {
			return
		}
	}
}

// ProcessNext claims and runs the oldest queued job. It reports false when
// the queue was empty. Conversion failures are recorded on the job and never
// propagate out; only store access problems return an error.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.store.NextQueued(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	claimed, err := w.store.Claim(ctx, job.ID)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	jobCtx := services.WithJobID(ctx, job.ID)
	logger := logging.WithContext(jobCtx, w.logger)
	logger.Info("job started", logging.String("source", job.SourceName))

	outputPath, convErr := w.convert(jobCtx, job)
	if convErr != nil {
		kind := services.Kind(convErr)
		message := truncateMessage(convErr.Error())
		if err := w.store.MarkFailed(ctx, job.ID, kind, message); err != nil {
			return true, err
		}
		logger.Error("job failed", logging.String("error_kind", kind), logging.Error(convErr))
		return true, nil
	}

	if err := w.store.MarkCompleted(ctx, job.ID, outputPath); err != nil {
		return true, err
	}
	logger.Info("job completed", logging.String("output", outputPath))
	return true, nil
}

func (w *Worker) convert(ctx context.Context, job *Job) (string, error) {
	info, err := os.Stat(job.InputPath)
	if err != nil {
		return "", services.Wrap(services.ErrStructuralRead, "worker", "input", "persisted upload missing", err)
	}
	if limit := w.cfg.MaxUploadBytes(); info.Size() > limit {
		return "", services.Wrap(services.ErrResourceLimit, "worker", "input",
			fmt.Sprintf("input is %d bytes, limit is %d bytes (%d MiB)", info.Size(), limit, w.cfg.Conversion.MaxUploadMiB), nil)
	}

	dir := filepath.Dir(job.InputPath)
	outputPath := filepath.Join(dir, w.cfg.Conversion.OutputName)
	scratchDir := filepath.Join(dir, "scratch")

	result, err := w.converter.Convert(ctx, job.InputPath, outputPath, scratchDir)
	if err != nil {
		return "", err
	}
	// Renderer intermediates are only useful during the conversion.
	_ = os.RemoveAll(scratchDir)
	return result.OutputPath, nil
}

func truncateMessage(message string) string {
	if len(message) <= errorMessageLimit {
		return message
	}
	return message[:errorMessageLimit] + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
