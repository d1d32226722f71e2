package jobs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prompter/internal/jobs"
	"prompter/internal/logging"
	"prompter/internal/services"
	"prompter/internal/testsupport"
)

func newManager(t *testing.T, opts ...testsupport.ConfigOption) (*jobs.Manager, *jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	return jobs.NewManager(cfg, store, logging.NewNop()), store
}

func TestManagerSubmitRejectsNonPPTX(t *testing.T) {
	manager, _ := newManager(t)

	_, err := manager.Submit(context.Background(), "notes.docx", strings.NewReader("payload"))
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("Submit docx error = %v, want invalid input", err)
	}
}

func TestManagerSubmitRejectsEmptyUpload(t *testing.T) {
	manager, _ := newManager(t)

	_, err := manager.Submit(context.Background(), "deck.pptx", strings.NewReader(""))
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("Submit empty error = %v, want invalid input", err)
	}
}

func TestManagerSubmitRejectsOversizeUpload(t *testing.T) {
	manager, _ := newManager(t, testsupport.WithMaxUploadMiB(1))

	payload := strings.NewReader(strings.Repeat("x", 1<<20+1))
	_, err := manager.Submit(context.Background(), "deck.pptx", payload)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("Submit oversize error = %v, want invalid input", err)
	}
	if err == nil || !strings.Contains(err.Error(), "1 MiB") {
		t.Fatalf("oversize error should name the ceiling: %v", err)
	}
}

func TestManagerSubmitPersistsUploadAndQueues(t *testing.T) {
	manager, store := newManager(t)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "  my/deck.pptx ", strings.NewReader("zip bytes"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("submitted status = %q, want queued", job.Status)
	}
	if job.SourceName != "my-deck.pptx" {
		t.Fatalf("source name = %q, want sanitized", job.SourceName)
	}

	data, err := os.ReadFile(job.InputPath)
	if err != nil {
		t.Fatalf("read persisted upload: %v", err)
	}
	if string(data) != "zip bytes" {
		t.Fatalf("persisted bytes = %q", data)
	}

	stored, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored == nil || stored.Status != jobs.StatusQueued {
		t.Fatalf("stored job = %+v", stored)
	}
}

func TestManagerSubmitCleansUpAfterOversize(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxUploadMiB(1))
	store := testsupport.MustOpenStore(t, cfg)
	manager := jobs.NewManager(cfg, store, logging.NewNop())

	payload := strings.NewReader(strings.Repeat("x", 1<<20+1))
	if _, err := manager.Submit(context.Background(), "deck.pptx", payload); err == nil {
		t.Fatal("Submit oversize should fail")
	}

	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected upload left %d entries in the work dir", len(entries))
	}
}

func TestManagerStatusUnknownJob(t *testing.T) {
	manager, _ := newManager(t)

	_, err := manager.Status(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Status error = %v, want not found", err)
	}
}

func TestManagerDownloadRequiresCompletion(t *testing.T) {
	manager, store := newManager(t)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "deck.pptx", strings.NewReader("zip bytes"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := manager.Download(ctx, job.ID); !errors.Is(err, services.ErrNotReady) {
		t.Fatalf("Download queued error = %v, want not ready", err)
	}

	if _, err := store.Claim(ctx, job.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	outputPath := filepath.Join(filepath.Dir(job.InputPath), "script_slides.pptx")
	if err := store.MarkCompleted(ctx, job.ID, outputPath); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	done, err := manager.Download(ctx, job.ID)
	if err != nil {
		t.Fatalf("Download completed: %v", err)
	}
	if done.OutputPath != outputPath {
		t.Fatalf("download output = %q, want %q", done.OutputPath, outputPath)
	}
}

func TestManagerCleanupIsIdempotent(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	job, err := manager.Submit(ctx, "deck.pptx", strings.NewReader("zip bytes"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	dir := filepath.Dir(job.InputPath)

	if err := manager.Cleanup(ctx, job.ID); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("job directory still present after cleanup: %v", err)
	}
	if _, err := manager.Status(ctx, job.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Status after cleanup = %v, want not found", err)
	}

	if err := manager.Cleanup(ctx, job.ID); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
	if err := manager.Cleanup(ctx, "never-existed"); err != nil {
		t.Fatalf("Cleanup of unknown id: %v", err)
	}
}

func TestManagerExpireOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Conversion.RetentionHours = 0
	store := testsupport.MustOpenStore(t, cfg)
	manager := jobs.NewManager(cfg, store, logging.NewNop())
	ctx := context.Background()

	job, err := manager.Submit(ctx, "deck.pptx", strings.NewReader("zip bytes"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	removed, err := manager.ExpireOnce(ctx)
	if err != nil {
		t.Fatalf("ExpireOnce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := manager.Status(ctx, job.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Status after expiry = %v, want not found", err)
	}

	removed, err = manager.ExpireOnce(ctx)
	if err != nil {
		t.Fatalf("second ExpireOnce: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second pass removed = %d, want 0", removed)
	}
}
