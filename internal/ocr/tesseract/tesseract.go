package tesseract

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/passport-extractor/passport-extractor/internal/images"
	"github.com/passport-extractor/passport-extractor/internal/ocr"
)

func init() {
	ocr.Register("tesseract", func(ctx context.Context, s ocr.Settings) (ocr.Engine, error) {
		return New(s.Language)
	})
}

// Engine implements ocr.Engine on a single long-lived gosseract client.
// The client is not goroutine safe, so every inference holds mu.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	languages []string
	pageMode  gosseract.PageSegMode
}

// Option configures an Engine
type Option func(*Engine)

// WithPageSegMode overrides the default page segmentation mode (PSM_AUTO_OSD,
// which runs orientation and script detection before recognition).
func WithPageSegMode(mode gosseract.PageSegMode) Option {
	return func(e *Engine) { e.pageMode = mode }
}

// New initializes the tesseract client once for the process.
func New(lang string, opts ...Option) (*Engine, error) {
	e := &Engine{
		languages: Languages(lang),
		pageMode:  gosseract.PSM_AUTO_OSD,
	}
	for _, opt := range opts {
		opt(e)
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(e.languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetPageSegMode(e.pageMode); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	e.client = client

	return e, nil
}

func (e *Engine) Name() string { return "tesseract" }

// Predict recognizes img and returns a single page whose texts are the
// recognized lines in reading order.
func (e *Engine) Predict(ctx context.Context, img *images.Image) ([]ocr.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := img.EncodePNG()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	page := ocr.Page{RecTexts: make([]string, 0, len(boxes))}
	for _, b := range boxes {
		page.RecTexts = append(page.RecTexts, b.Word)
	}
	return []ocr.Page{page}, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

// tesseract wants ISO 639-2 names
var isoToTesseract = map[string]string{
	"en": "eng",
	"hi": "hin",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
	"ta": "tam",
	"te": "tel",
	"bn": "ben",
	"mr": "mar",
	"gu": "guj",
	"ml": "mal",
	"kn": "kan",
	"pa": "pan",
}

// Languages converts a "+" or "," separated language list into tesseract
// language names, e.g. "en+hi" -> [eng hin]. Empty input means English.
func Languages(lang string) []string {
	parts := ocr.SplitLanguages(lang)
	if len(parts) == 0 {
		return []string{"eng"}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if mapped, ok := isoToTesseract[p]; ok {
			p = mapped
		}
		out = append(out, p)
	}
	return out
}
