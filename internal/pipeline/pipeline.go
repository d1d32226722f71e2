// Package pipeline orchestrates one full conversion: read the input deck,
// segment and colorize every slide's notes, render thumbnails through the
// fallback chain, compose the script slides, and write the output deck.
package pipeline

import (
	"context"
	"log/slog"

	"prompter/internal/compose"
	"prompter/internal/config"
	"prompter/internal/deck"
	"prompter/internal/logging"
	"prompter/internal/notes"
	"prompter/internal/palette"
	"prompter/internal/services"
	"prompter/internal/thumbnail"
)

// Default 16:9 canvas, used when the input does not declare a slide size.
const (
	defaultCanvasW = 12192000
	defaultCanvasH = 6858000
)

// Result summarizes a finished conversion.
type Result struct {
	OutputPath   string
	SourceSlides int
	OutputSlides int
}

// Option configures the converter.
type Option func(*Converter)

// WithRendererOptions forwards options to the thumbnail renderer, primarily
// to inject a fake executor in tests.
func WithRendererOptions(opts ...thumbnail.Option) Option {
	return func(c *Converter) {
		c.rendererOpts = append(c.rendererOpts, opts...)
	}
}

// Converter runs conversions. One converter may run many jobs sequentially;
// each Convert call builds its own renderer so per-deck caches never leak
// between jobs.
type Converter struct {
	cfg          *config.Config
	logger       *slog.Logger
	rendererOpts []thumbnail.Option
}

// New builds a Converter.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Converter {
	c := &Converter{cfg: cfg, logger: logging.NewComponentLogger(logger, "pipeline")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert reads inputPath, writes the generated deck to outputPath, and uses
// scratchDir for intermediate renderer artifacts. Structural problems with
// the input abort the conversion; thumbnail failures never do.
func (c *Converter) Convert(ctx context.Context, inputPath, outputPath, scratchDir string) (*Result, error) {
	logger := logging.WithContext(ctx, c.logger)

	doc, err := deck.Read(inputPath)
	if err != nil {
		return nil, err
	}
	canvasW, canvasH := doc.WidthEMU, doc.HeightEMU
	if canvasW <= 0 || canvasH <= 0 {
		canvasW, canvasH = defaultCanvasW, defaultCanvasH
	}

	segmenter := notes.NewSegmenter(c.cfg.Conversion.MaxChars, c.cfg.Conversion.BoundaryMarks)

	// Chunk the whole document before composing anything so the speaker
	// color assignment is stable across slides.
	slideChunks := make([][]notes.Chunk, len(doc.Slides))
	var speakerOrder []string
	seen := make(map[string]struct{})
	for i, slide := range doc.Slides {
		chunks := segmenter.Chunks(slide.RawText)
		slideChunks[i] = chunks
		for _, chunk := range chunks {
			for _, segment := range chunk.Segments {
				if segment.Speaker == "" {
					continue
				}
				if _, ok := seen[segment.Speaker]; ok {
					continue
				}
				seen[segment.Speaker] = struct{}{}
				speakerOrder = append(speakerOrder, segment.Speaker)
			}
		}
	}
	colors := palette.Assign(speakerOrder)

	renderer := thumbnail.NewRenderer(c.cfg, scratchDir, c.logger, c.rendererOpts...)

	var outSlides []deck.Slide
	for i, slide := range doc.Slides {
		chunks := slideChunks[i]
		if len(chunks) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrTimeout, "pipeline", "convert", "conversion interrupted", err)
		}
		thumb := renderer.Render(ctx, inputPath, slide.SlideIndex)
		logger.Debug("slide rendered",
			logging.Int(logging.FieldSlide, slide.SlideIndex),
			logging.Int("chunks", len(chunks)),
			logging.String("thumbnail_source", string(thumb.Source)))
		for _, chunk := range chunks {
			outSlides = append(outSlides, compose.Build(chunk, colors, thumb, canvasW, canvasH))
		}
	}

	if len(outSlides) == 0 {
		return nil, services.Wrap(services.ErrStructuralRead, "pipeline", "convert", "presentation contains no notes to convert", nil)
	}

	if err := deck.Write(outputPath, canvasW, canvasH, outSlides); err != nil {
		return nil, services.Wrap(services.ErrStructuralRead, "pipeline", "write", "writing output deck", err)
	}

	logger.Info("conversion finished",
		logging.Int("source_slides", len(doc.Slides)),
		logging.Int("output_slides", len(outSlides)),
		logging.Int("speakers", len(speakerOrder)))
	return &Result{OutputPath: outputPath, SourceSlides: len(doc.Slides), OutputSlides: len(outSlides)}, nil
}
