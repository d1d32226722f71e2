package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"prompter/internal/deck"
	"prompter/internal/logging"
	"prompter/internal/pipeline"
	"prompter/internal/services"
	"prompter/internal/testsupport"
	"prompter/internal/thumbnail"
)

type failingExecutor struct{ calls int }

func (e *failingExecutor) Run(context.Context, string, []string) error {
	e.calls++
	return errors.New("renderer not installed")
}

func convert(t *testing.T, exec thumbnail.Executor, deckNotes ...string) (*pipeline.Result, error) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithMaxChars(20))
	base := testsupport.BaseDir(cfg)
	input := filepath.Join(base, "input.pptx")
	testsupport.BuildDeck(t, input, deckNotes...)

	converter := pipeline.New(cfg, logging.NewNop(),
		pipeline.WithRendererOptions(thumbnail.WithExecutor(exec)))
	return converter.Convert(context.Background(), input,
		filepath.Join(base, "script_slides.pptx"), filepath.Join(base, "scratch"))
}

func TestConvertProducesChunkSlides(t *testing.T) {
	result, err := convert(t, &failingExecutor{},
		"話者1：こんにちは。今日は天気がいいですね。\n話者2：そうですね。")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if result.SourceSlides != 1 {
		t.Fatalf("source slides = %d", result.SourceSlides)
	}
	if result.OutputSlides != 2 {
		t.Fatalf("output slides = %d, want one per chunk", result.OutputSlides)
	}

	out, err := deck.Read(result.OutputPath)
	if err != nil {
		t.Fatalf("output deck unreadable: %v", err)
	}
	if len(out.Slides) != 2 {
		t.Fatalf("output deck has %d slides", len(out.Slides))
	}
}

func TestConvertSkipsEmptyNotes(t *testing.T) {
	result, err := convert(t, &failingExecutor{},
		"話者1：一枚目。",
		"",
		"話者2：三枚目。")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if result.OutputSlides != 2 {
		t.Fatalf("output slides = %d, empty-notes slide should contribute none", result.OutputSlides)
	}
}

func TestConvertFailsWithoutAnyNotes(t *testing.T) {
	exec := &failingExecutor{}
	_, err := convert(t, exec, "", "")
	if err == nil {
		t.Fatal("expected failure for a deck without notes")
	}
	if !errors.Is(err, services.ErrStructuralRead) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if exec.calls != 0 {
		t.Fatalf("renderer invoked %d times for empty-notes deck", exec.calls)
	}
}

func TestConvertRejectsCorruptInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	input := filepath.Join(base, "broken.pptx")
	testsupport.WriteFile(t, input, 128)

	converter := pipeline.New(cfg, logging.NewNop(),
		pipeline.WithRendererOptions(thumbnail.WithExecutor(&failingExecutor{})))
	_, err := converter.Convert(context.Background(), input,
		filepath.Join(base, "out.pptx"), filepath.Join(base, "scratch"))
	if !errors.Is(err, services.ErrStructuralRead) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "deck") {
		t.Fatalf("error should name the failing component: %v", err)
	}
}

func TestConvertStopsWhenContextCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	input := filepath.Join(base, "input.pptx")
	testsupport.BuildDeck(t, input, "話者1：本文。")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	converter := pipeline.New(cfg, logging.NewNop(),
		pipeline.WithRendererOptions(thumbnail.WithExecutor(&failingExecutor{})))
	_, err := converter.Convert(ctx, input,
		filepath.Join(base, "out.pptx"), filepath.Join(base, "scratch"))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}
