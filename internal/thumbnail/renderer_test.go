package thumbnail_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"prompter/internal/logging"
	"prompter/internal/testsupport"
	"prompter/internal/thumbnail"
)

type scriptedExecutor struct {
	run   func(ctx context.Context, binary string, args []string) error
	calls []string
}

func (e *scriptedExecutor) Run(ctx context.Context, binary string, args []string) error {
	e.calls = append(e.calls, binary+" "+args[2]) // args[2] is the convert target or -r value
	if e.run == nil {
		return nil
	}
	return e.run(ctx, binary, args)
}

func argAfter(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newRenderer(t *testing.T, exec thumbnail.Executor) *thumbnail.Renderer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	scratch := filepath.Join(testsupport.BaseDir(cfg), "scratch")
	return thumbnail.NewRenderer(cfg, scratch, logging.NewNop(), thumbnail.WithExecutor(exec))
}

func TestRenderDirectTier(t *testing.T) {
	exec := &scriptedExecutor{run: func(_ context.Context, binary string, args []string) error {
		if binary == "soffice" && argAfter(args, "--convert-to") == "png" {
			outDir := argAfter(args, "--outdir")
			return os.WriteFile(filepath.Join(outDir, "deck.png"), []byte("direct-png"), 0o644)
		}
		return errors.New("unexpected invocation")
	}}

	r := newRenderer(t, exec)
	result := r.Render(context.Background(), "/tmp/deck.pptx", 1)
	if result.Source != thumbnail.SourceDirect {
		t.Fatalf("source = %s, want direct", result.Source)
	}
	if string(result.PNG) != "direct-png" {
		t.Fatalf("unexpected bytes %q", result.PNG)
	}
}

func TestRenderPDFFallback(t *testing.T) {
	exec := &scriptedExecutor{run: func(_ context.Context, binary string, args []string) error {
		switch {
		case binary == "soffice" && argAfter(args, "--convert-to") == "png":
			return errors.New("png export not supported in this build")
		case binary == "soffice" && argAfter(args, "--convert-to") == "pdf":
			outDir := argAfter(args, "--outdir")
			return os.WriteFile(filepath.Join(outDir, "deck.pdf"), []byte("%PDF"), 0o644)
		case binary == "pdftoppm":
			prefix := args[len(args)-1]
			return os.WriteFile(prefix+"-1.png", []byte("page-png"), 0o644)
		}
		return errors.New("unexpected invocation")
	}}

	r := newRenderer(t, exec)
	result := r.Render(context.Background(), "/tmp/deck.pptx", 2)
	if result.Source != thumbnail.SourcePDF {
		t.Fatalf("source = %s, want pdf_fallback", result.Source)
	}
	if string(result.PNG) != "page-png" {
		t.Fatalf("unexpected bytes %q", result.PNG)
	}
}

func TestRenderPlaceholderWhenEverythingFails(t *testing.T) {
	exec := &scriptedExecutor{run: func(context.Context, string, []string) error {
		return errors.New("renderer missing")
	}}

	r := newRenderer(t, exec)
	result := r.Render(context.Background(), "/tmp/deck.pptx", 3)
	if result.Source != thumbnail.SourcePlaceholder {
		t.Fatalf("source = %s, want placeholder", result.Source)
	}
	img, err := png.Decode(bytes.NewReader(result.PNG))
	if err != nil {
		t.Fatalf("placeholder is not a valid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1600 || b.Dy() != 900 {
		t.Fatalf("placeholder size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderCachesConversionsAcrossSlides(t *testing.T) {
	pngExports := 0
	pdfExports := 0
	exec := &scriptedExecutor{run: func(_ context.Context, binary string, args []string) error {
		switch {
		case binary == "soffice" && argAfter(args, "--convert-to") == "png":
			pngExports++
			return errors.New("unsupported")
		case binary == "soffice" && argAfter(args, "--convert-to") == "pdf":
			pdfExports++
			outDir := argAfter(args, "--outdir")
			return os.WriteFile(filepath.Join(outDir, "deck.pdf"), []byte("%PDF"), 0o644)
		case binary == "pdftoppm":
			prefix := args[len(args)-1]
			return os.WriteFile(prefix+"-01.png", []byte("page"), 0o644)
		}
		return errors.New("unexpected invocation")
	}}

	r := newRenderer(t, exec)
	for slide := 1; slide <= 3; slide++ {
		if result := r.Render(context.Background(), "/tmp/deck.pptx", slide); result.Source != thumbnail.SourcePDF {
			t.Fatalf("slide %d source = %s", slide, result.Source)
		}
	}
	if pngExports != 1 {
		t.Fatalf("direct export attempted %d times, want 1", pngExports)
	}
	if pdfExports != 1 {
		t.Fatalf("pdf export attempted %d times, want 1", pdfExports)
	}
}

func TestRenderTimeoutFallsThrough(t *testing.T) {
	exec := &scriptedExecutor{run: func(ctx context.Context, _ string, _ []string) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	cfg := testsupport.NewConfig(t)
	cfg.Renderer.AttemptTimeout = 1
	scratch := filepath.Join(testsupport.BaseDir(cfg), "scratch")
	r := thumbnail.NewRenderer(cfg, scratch, logging.NewNop(), thumbnail.WithExecutor(exec))

	result := r.Render(context.Background(), "/tmp/deck.pptx", 1)
	if result.Source != thumbnail.SourcePlaceholder {
		t.Fatalf("source = %s, want placeholder after timeouts", result.Source)
	}
}
