package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"prompter/internal/config"
	"prompter/internal/deps"
	"prompter/internal/jobs"
	"prompter/internal/logging"
	"prompter/internal/pipeline"
)

// Daemon coordinates the conversion worker, job expiry, and the HTTP API,
// and enforces single-instance execution through a file lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	manager *jobs.Manager
	worker  *jobs.Worker
	api     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobDBPath    string
	LockFilePath string
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, converter *pipeline.Converter, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || converter == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, converter, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "prompterd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		manager:  jobs.NewManager(cfg, store, logger),
		worker:   jobs.NewWorker(cfg, store, converter, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Manager exposes the job manager for embedding callers.
func (d *Daemon) Manager() *jobs.Manager {
	return d.manager
}

// Start acquires the daemon lock, recovers interrupted jobs, and launches
// the worker, the expiry loop, and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another prompter daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Jobs stranded in processing by a crash go back to the queue.
	if reset, err := d.store.ResetStuckProcessing(runCtx); err != nil {
		d.logger.Warn("reset interrupted jobs failed", logging.Error(err))
	} else if reset > 0 {
		d.logger.Info("interrupted jobs requeued", logging.Int64("count", reset))
	}

	logging.CleanupOldLogs(d.logger, d.cfg.Paths.LogDir, "*.log", d.cfg.Logging.RetentionDays)

	if err := d.worker.Start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start worker: %w", err)
	}

	d.wg.Add(1)
	go d.runExpiry(runCtx)

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.worker.Stop()
			cancel()
			d.cancel = nil
			d.wg.Wait()
			d.releaseLock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.worker.Stop()
	d.wg.Wait()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, or empty before Start.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobDBPath:    filepath.Join(d.cfg.Paths.LogDir, "jobs.db"),
		LockFilePath: d.lockPath,
		Dependencies: deps.CheckBinaries(deps.Renderer(d.cfg)),
	}
}

func (d *Daemon) runExpiry(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Workflow.ExpireInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.manager.ExpireOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("job expiry sweep failed", logging.Error(err))
			}
		}
	}
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}
