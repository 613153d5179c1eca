package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/passport-extractor/passport-extractor/internal/images"
	"github.com/passport-extractor/passport-extractor/internal/passport"
)

// TextExtractor reads text out of a decoded image
type TextExtractor interface {
	ExtractText(ctx context.Context, img *images.Image) (string, error)
}

// Structurer turns OCR text into a passport record
type Structurer interface {
	Extract(ctx context.Context, ocrText string) (*passport.Extraction, error)
}

// Result is everything produced for one image
type Result struct {
	OCRText    string
	Extraction *passport.Extraction
	Duration   time.Duration
}

// Pipeline runs load, OCR and structuring for one image at a time. It holds
// no per-request state and is safe for concurrent use.
type Pipeline struct {
	ocr        TextExtractor
	structurer Structurer
	timeout    time.Duration
}

// New creates a pipeline. A zero timeout means no deadline beyond ctx.
func New(ocr TextExtractor, structurer Structurer, timeout time.Duration) *Pipeline {
	return &Pipeline{
		ocr:        ocr,
		structurer: structurer,
		timeout:    timeout,
	}
}

// Run processes the image at path. Any stage failure stops the run and is
// returned wrapped; later stages are not invoked.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	img, err := images.Load(path)
	if err != nil {
		return nil, err
	}

	text, err := p.ocr.ExtractText(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	extraction, err := p.structurer.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("structuring: %w", err)
	}

	result := &Result{
		OCRText:    text,
		Extraction: extraction,
		Duration:   time.Since(start),
	}
	slog.Info("Processed passport image",
		"path", path,
		"ocr_chars", len(text),
		"accuracy_percent", extraction.Metrics.AccuracyPercent,
		"duration", result.Duration)

	return result, nil
}
