package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prompter/internal/config"
	"prompter/internal/daemon"
	"prompter/internal/logging"
	"prompter/internal/pipeline"
	"prompter/internal/testsupport"
	"prompter/internal/thumbnail"
)

type failingExecutor struct{}

func (failingExecutor) Run(ctx context.Context, binary string, args []string) error {
	return errors.New(binary + " unavailable")
}

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(homeDir, ".config", "prompter", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	converter := pipeline.New(cfg, logging.NewNop(),
		pipeline.WithRendererOptions(thumbnail.WithExecutor(failingExecutor{})))
	d, err := daemon.New(cfg, store, converter, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		apiAddr:    d.APIAddr(),
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nwork_dir = %q\nlog_dir = %q\napi_bind = %q\n",
		cfg.Paths.WorkDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func buildFixtureDeck(t *testing.T, notes ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	testsupport.BuildDeck(t, path, notes...)
	return path
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
