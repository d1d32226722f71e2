package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"prompter/internal/api"
	"prompter/internal/daemonctl"
	"prompter/internal/deps"
)

const (
	startWaitTimeout = 15 * time.Second
	stopGracePeriod  = 10 * time.Second
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the conversion daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			execPath, err := resolveDaemonExecutable()
			if err != nil {
				return fmt.Errorf("locate prompterd: %w", err)
			}

			opts := daemonctl.LaunchOptions{}
			if ctx.configFlag != nil {
				opts.ConfigPath = strings.TrimSpace(*ctx.configFlag)
			}
			status, launched, err := daemonctl.EnsureStarted(cmd.Context(), cfg, execPath, opts, startWaitTimeout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if launched {
				fmt.Fprintf(out, "Daemon started (pid %d)\n", status.PID)
			} else {
				fmt.Fprintf(out, "Daemon already running (pid %d)\n", status.PID)
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the conversion daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pid, err := daemonctl.Stop(cmd.Context(), cfg, stopGracePeriod)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon not running")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon stopped (pid %d)\n", pid)
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			status, err := ctx.client().DaemonStatus(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "Not running (run `prompter start`)", colorize))
				printDependencyLines(out, localDependencyStatuses(ctx), colorize)
				return nil
			}

			fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
			fmt.Fprintln(out, renderStatusLine("Job database", statusInfo, status.JobDBPath, colorize))
			printDependencyLines(out, status.Dependencies, colorize)

			list, err := ctx.client().List(cmd.Context())
			if err != nil {
				return err
			}
			counts := map[string]int{}
			for _, job := range list {
				counts[job.Status]++
			}
			summary := fmt.Sprintf("%d total (%d queued, %d processing, %d completed, %d failed)",
				len(list), counts["queued"], counts["processing"], counts["completed"], counts["failed"])
			fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo, summary, colorize))
			return nil
		},
	}
}

func printDependencyLines(out io.Writer, statuses []api.DependencyStatus, colorize bool) {
	for _, dep := range statuses {
		kind := statusOK
		message := dep.Command
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
			message = dep.Detail
		}
		fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
	}
}

func localDependencyStatuses(ctx *commandContext) []api.DependencyStatus {
	cfg := ctx.configValue()
	if cfg == nil {
		return nil
	}
	checks := deps.CheckBinaries(deps.Renderer(cfg))
	statuses := make([]api.DependencyStatus, 0, len(checks))
	for _, check := range checks {
		statuses = append(statuses, api.DependencyStatus{
			Name:        check.Name,
			Command:     check.Command,
			Description: check.Description,
			Optional:    check.Optional,
			Available:   check.Available,
			Detail:      check.Detail,
		})
	}
	return statuses
}

func resolveDaemonExecutable() (string, error) {
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), "prompterd")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return exec.LookPath("prompterd")
}
