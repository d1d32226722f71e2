package services_test

import (
	"context"
	"testing"

	"prompter/internal/services"
)

func TestJobIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("empty context should carry no job id")
	}
	ctx = services.WithJobID(ctx, "job-1")
	id, ok := services.JobIDFromContext(ctx)
	if !ok || id != "job-1" {
		t.Fatalf("got %q ok=%v", id, ok)
	}
}

func TestStageEmptyValueIgnored(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("empty stage should not be stored")
	}
	ctx = services.WithStage(ctx, "compose")
	stage, ok := services.StageFromContext(ctx)
	if !ok || stage != "compose" {
		t.Fatalf("got %q ok=%v", stage, ok)
	}
}
