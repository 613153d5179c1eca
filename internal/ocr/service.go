package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/passport-extractor/passport-extractor/internal/images"
)

// ErrEngine wraps any failure of the underlying OCR engine call
var ErrEngine = errors.New("ocr engine failed")

// Page is one result group returned by an engine, in reading order.
type Page struct {
	RecTexts []string `json:"rec_texts"`
}

// Engine is a once-initialized OCR inference backend.
// Implementations must be safe for concurrent use by in-flight requests.
type Engine interface {
	Name() string
	Predict(ctx context.Context, img *images.Image) ([]Page, error)
	Close() error
}

// Service handles OCR extraction from images
type Service struct {
	engine Engine
}

// NewService creates a new OCR service around a shared engine
func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// ExtractText runs the engine once and flattens every page into a single string.
func (s *Service) ExtractText(ctx context.Context, img *images.Image) (string, error) {
	pages, err := s.engine.Predict(ctx, img)
	if err != nil {
		return "", fmt.Errorf("%w (%s): %w", ErrEngine, s.engine.Name(), err)
	}

	var fragments []string
	for _, page := range pages {
		fragments = append(fragments, page.RecTexts...)
	}
	text := JoinTexts(fragments)

	slog.Info("Extracted OCR text", "engine", s.engine.Name(), "pages", len(pages), "fragments", len(fragments), "length", len(text))
	return text, nil
}

// JoinTexts joins fragments with single spaces, preserving order.
// Blank fragments are dropped and surrounding whitespace is trimmed so that
// no separator is ever doubled; inner text is kept as recognized.
func JoinTexts(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
