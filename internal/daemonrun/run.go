// Package daemonrun wires the daemon process: logger, job store, conversion
// pipeline, and signal handling.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"prompter/internal/config"
	"prompter/internal/daemon"
	"prompter/internal/deps"
	"prompter/internal/jobs"
	"prompter/internal/logging"
	"prompter/internal/pipeline"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the daemon runtime loop and blocks until a termination signal.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Paths:  []string{"stdout", filepath.Join(cfg.Paths.LogDir, "prompterd.log")},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "prompterd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	converter := pipeline.New(cfg, logger)
	d, err := daemon.New(cfg, store, converter, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	for _, status := range deps.CheckBinaries(deps.Renderer(cfg)) {
		logger.Info("renderer dependency",
			logging.String("name", status.Name),
			logging.String("command", status.Command),
			logging.Bool("available", status.Available),
			logging.String("detail", status.Detail),
		)
	}
}
