package jobs_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"prompter/internal/jobs"
	"prompter/internal/testsupport"
)

func newJob(id string) *jobs.Job {
	return &jobs.Job{
		ID:         id,
		SourceName: id + ".pptx",
		InputPath:  "/tmp/" + id + "/input.pptx",
	}
}

func TestStoreInsertAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := newJob("job-a")
	if err := store.Insert(ctx, job); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("inserted status = %q, want queued", job.Status)
	}

	got, err := store.GetByID(ctx, "job-a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil for existing job")
	}
	if got.SourceName != "job-a.pptx" || got.Status != jobs.StatusQueued {
		t.Fatalf("unexpected job: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps were not persisted")
	}

	missing, err := store.GetByID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByID for unknown id = %+v, want nil", missing)
	}
}

func TestStoreNextQueuedOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		if err := store.Insert(ctx, newJob(id)); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	next, err := store.NextQueued(ctx)
	if err != nil {
		t.Fatalf("NextQueued: %v", err)
	}
	if next == nil || next.ID != "first" {
		t.Fatalf("NextQueued = %+v, want oldest job first", next)
	}
}

func TestStoreClaimIsAtomic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Insert(ctx, newJob("job-a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	claimed, err := store.Claim(ctx, "job-a")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !claimed {
		t.Fatal("first Claim should succeed")
	}

	again, err := store.Claim(ctx, "job-a")
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if again {
		t.Fatal("second Claim should lose the race")
	}

	got, err := store.GetByID(ctx, "job-a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != jobs.StatusProcessing {
		t.Fatalf("status after claim = %q, want processing", got.Status)
	}
}

func TestStoreFinishTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Insert(ctx, newJob("job-a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Finishing a queued job must fail; the transition is guarded on
	// processing.
	if err := store.MarkCompleted(ctx, "job-a", "/out.pptx"); err == nil {
		t.Fatal("MarkCompleted on a queued job should fail")
	}

	if _, err := store.Claim(ctx, "job-a"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.MarkCompleted(ctx, "job-a", "/out.pptx"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	got, err := store.GetByID(ctx, "job-a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != jobs.StatusCompleted || got.OutputPath != "/out.pptx" {
		t.Fatalf("completed job = %+v", got)
	}
	if !got.Status.IsTerminal() {
		t.Fatal("completed should be terminal")
	}

	// Terminal states are immutable.
	if err := store.MarkFailed(ctx, "job-a", "internal", "late failure"); err == nil {
		t.Fatal("MarkFailed on a completed job should fail")
	}
	if !strings.Contains(store.MarkFailed(ctx, "job-a", "internal", "x").Error(), "not processing") {
		t.Fatal("finish guard should explain the rejected transition")
	}
}

func TestStoreMarkFailedRecordsKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Insert(ctx, newJob("job-a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.Claim(ctx, "job-a"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.MarkFailed(ctx, "job-a", "structural_read_error", "corrupt archive"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	got, err := store.GetByID(ctx, "job-a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != jobs.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.ErrorKind != "structural_read_error" || got.ErrorMessage != "corrupt archive" {
		t.Fatalf("failure details = %q / %q", got.ErrorKind, got.ErrorMessage)
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Insert(ctx, newJob("job-a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Delete(ctx, "job-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "job-a"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}

	got, err := store.GetByID(ctx, "job-a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatal("deleted job still present")
	}
}

func TestStoreListOlderThan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Insert(ctx, newJob("old")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	if err := store.Insert(ctx, newJob("fresh")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	expired, err := store.ListOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListOlderThan: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "old" {
		t.Fatalf("expired = %+v, want only the old job", expired)
	}
}

func TestStoreResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.Insert(ctx, newJob("stuck")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.Claim(ctx, "stuck"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.Insert(ctx, newJob("done")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.Claim(ctx, "done"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.MarkCompleted(ctx, "done", "/out.pptx"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}

	got, err := store.GetByID(ctx, "stuck")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != jobs.StatusQueued {
		t.Fatalf("stuck job status = %q, want queued", got.Status)
	}
	done, err := store.GetByID(ctx, "done")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if done.Status != jobs.StatusCompleted {
		t.Fatalf("completed job was disturbed: %q", done.Status)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Insert(ctx, newJob(id)); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != "b" || all[1].ID != "a" {
		t.Fatalf("List order = %v", []string{all[0].ID, all[1].ID})
	}
}
