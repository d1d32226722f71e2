// Package daemonctl manages the daemon process from the CLI: launching a
// detached prompterd, waiting for its API, and stopping it via its pid file.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"prompter/internal/api"
	"prompter/internal/config"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable and no pid
// file points at a live process.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// Launch starts a detached prompterd process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	var args []string
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForAPI polls the daemon status endpoint until it answers or the
// timeout elapses.
func WaitForAPI(ctx context.Context, bind string, timeout time.Duration) (*api.DaemonStatus, error) {
	client := api.NewClient(bind)
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := client.DaemonStatus(ctx)
		if err == nil {
			return status, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted returns the running daemon's status, launching prompterd
// first when the API is unreachable. The second return reports whether a
// process was launched.
func EnsureStarted(ctx context.Context, cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (*api.DaemonStatus, bool, error) {
	client := api.NewClient(cfg.Paths.APIBind)
	if status, err := client.DaemonStatus(ctx); err == nil {
		return status, false, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return nil, false, err
	}
	status, err := WaitForAPI(ctx, cfg.Paths.APIBind, waitTimeout)
	if err != nil {
		return nil, true, err
	}
	return status, true, nil
}

// ReadPID reads the daemon pid file. A missing file returns 0 without error.
func ReadPID(cfg *config.Config) (int, error) {
	pidPath := filepath.Join(cfg.Paths.LogDir, "prompterd.pid")
	data, err := os.ReadFile(pidPath)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file %q: %w", pidPath, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %q is malformed", pidPath)
	}
	return pid, nil
}

// Stop signals the daemon process to terminate and waits for its API to go
// away. It escalates to SIGKILL when the grace period elapses.
func Stop(ctx context.Context, cfg *config.Config, gracePeriod time.Duration) (int, error) {
	pid, err := ReadPID(cfg)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		return 0, ErrDaemonNotRunning
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			cleanupRuntimeFiles(cfg)
			return pid, nil
		}
		return 0, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	deadline := time.Now().Add(gracePeriod)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return pid, nil
		}
		select {
		case <-ctx.Done():
			return pid, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return pid, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	cleanupRuntimeFiles(cfg)
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func cleanupRuntimeFiles(cfg *config.Config) {
	for _, name := range []string{"prompterd.pid", "prompterd.lock"} {
		_ = os.Remove(filepath.Join(cfg.Paths.LogDir, name))
	}
}
