package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"prompter/internal/config"
	"prompter/internal/logging"
)

// Source identifies which tier produced a thumbnail.
type Source string

const (
	SourceDirect      Source = "direct"
	SourcePDF         Source = "pdf_fallback"
	SourcePlaceholder Source = "placeholder"
)

// Result is a rendered thumbnail for one source slide. PNG is never nil when
// the placeholder tier ran; earlier tiers supply real renderings.
type Result struct {
	SlideIndex int
	PNG        []byte
	Source     Source
}

// Option configures the renderer.
type Option func(*Renderer)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Renderer) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// Renderer produces slide thumbnails through a three-tier fallback chain:
// direct PNG export, whole-deck PDF rasterization, synthesized placeholder.
// One renderer serves one deck; conversions are cached across slides. Not
// safe for concurrent use, which matches the single-worker execution model.
type Renderer struct {
	convertBinary string
	rasterBinary  string
	timeout       time.Duration
	dpi           int
	scratchDir    string
	logger        *slog.Logger
	exec          Executor

	directTried bool
	directFiles []string
	pdfTried    bool
	pdfPath     string
}

// NewRenderer builds a renderer writing intermediate artifacts under
// scratchDir.
func NewRenderer(cfg *config.Config, scratchDir string, logger *slog.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		convertBinary: cfg.Renderer.ConvertBinary,
		rasterBinary:  cfg.Renderer.RasterBinary,
		timeout:       time.Duration(cfg.Renderer.AttemptTimeout) * time.Second,
		dpi:           cfg.Renderer.DPI,
		scratchDir:    scratchDir,
		logger:        logging.NewComponentLogger(logger, "thumbnail"),
		exec:          commandExecutor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns a thumbnail for the given slide. It never fails: every tier
// error falls through to the next and the placeholder tier always succeeds.
func (r *Renderer) Render(ctx context.Context, deckPath string, slideIndex int) Result {
	if png, err := r.direct(ctx, deckPath, slideIndex); err == nil {
		return Result{SlideIndex: slideIndex, PNG: png, Source: SourceDirect}
	} else {
		r.logger.Debug("direct export unavailable",
			logging.Int(logging.FieldSlide, slideIndex), logging.Error(err))
	}
	if png, err := r.viaPDF(ctx, deckPath, slideIndex); err == nil {
		return Result{SlideIndex: slideIndex, PNG: png, Source: SourcePDF}
	} else {
		r.logger.Warn("renderer unavailable, using placeholder",
			logging.Int(logging.FieldSlide, slideIndex), logging.Error(err))
	}
	return Result{SlideIndex: slideIndex, PNG: placeholderPNG(slideIndex), Source: SourcePlaceholder}
}

// direct asks the converter for a PNG export of the deck. Most converter
// builds export only the first page, so later slides usually miss here and
// fall through to the PDF tier.
func (r *Renderer) direct(ctx context.Context, deckPath string, slideIndex int) ([]byte, error) {
	if !r.directTried {
		r.directTried = true
		outDir := filepath.Join(r.scratchDir, "direct")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, err
		}
		err := r.attempt(ctx, r.convertBinary,
			"--headless", "--convert-to", "png", "--outdir", outDir, deckPath)
		if err != nil {
			r.logger.Debug("direct convert failed", logging.Error(err))
		}
		r.directFiles = globSorted(outDir, "*.png")
	}
	if slideIndex < 1 || slideIndex > len(r.directFiles) {
		return nil, fmt.Errorf("no direct export for slide %d", slideIndex)
	}
	return os.ReadFile(r.directFiles[slideIndex-1])
}

// viaPDF converts the whole deck to PDF once, then rasterizes the matching
// page per slide.
func (r *Renderer) viaPDF(ctx context.Context, deckPath string, slideIndex int) ([]byte, error) {
	if !r.pdfTried {
		r.pdfTried = true
		pdfDir := filepath.Join(r.scratchDir, "pdf")
		if err := os.MkdirAll(pdfDir, 0o755); err != nil {
			return nil, err
		}
		err := r.attempt(ctx, r.convertBinary,
			"--headless", "--convert-to", "pdf", "--outdir", pdfDir, deckPath)
		if err != nil {
			return nil, err
		}
		candidates := globSorted(pdfDir, "*.pdf")
		if len(candidates) == 0 {
			return nil, errors.New("converter produced no PDF")
		}
		r.pdfPath = candidates[0]
	}
	if r.pdfPath == "" {
		return nil, errors.New("PDF conversion previously failed")
	}

	pageDir := filepath.Join(r.scratchDir, "pages")
	if err := os.MkdirAll(pageDir, 0o755); err != nil {
		return nil, err
	}
	prefix := filepath.Join(pageDir, fmt.Sprintf("page%d", slideIndex))
	err := r.attempt(ctx, r.rasterBinary,
		"-png", "-r", strconv.Itoa(r.dpi),
		"-f", strconv.Itoa(slideIndex), "-l", strconv.Itoa(slideIndex),
		r.pdfPath, prefix)
	if err != nil {
		return nil, err
	}
	// pdftoppm appends a zero-padded page number to the prefix.
	produced := globSorted(pageDir, filepath.Base(prefix)+"*.png")
	if len(produced) == 0 {
		return nil, fmt.Errorf("rasterizer produced no page for slide %d", slideIndex)
	}
	return os.ReadFile(produced[0])
}

// attempt runs one external command under the per-attempt timeout. Attempts
// share no process state, so a crashed converter cannot poison later tiers.
func (r *Renderer) attempt(ctx context.Context, binary string, args ...string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.exec.Run(ctx, binary, args)
}

func globSorted(dir, pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}
