package passport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/passport-extractor/passport-extractor/internal/providers"
)

// ErrCompletion wraps failures of the LLM call itself
var ErrCompletion = errors.New("llm completion failed")

// Options are the fixed decoding parameters for the extraction call
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultOptions returns temperature 0.2 and 512 output tokens
func DefaultOptions(model string) Options {
	return Options{Model: model, Temperature: 0.2, MaxTokens: 512}
}

// Extraction is the structured result of one OCR text
type Extraction struct {
	Raw     string
	Record  *Record
	Metrics Metrics
	Issues  []Issue
}

// Service turns OCR text into a passport record using an LLM provider
type Service struct {
	provider providers.Provider
	opts     Options
}

// NewService creates a new structuring service around a shared provider
func NewService(provider providers.Provider, opts Options) *Service {
	return &Service{provider: provider, opts: opts}
}

// Extract calls the provider exactly once. A malformed response fails the
// extraction; there is no retry and no fallback record.
func (s *Service) Extract(ctx context.Context, ocrText string) (*Extraction, error) {
	raw, err := s.provider.Complete(ctx, providers.Config{
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		Prompt:      BuildPrompt(ocrText),
	})
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrCompletion, s.provider.Name(), err)
	}

	record, err := ParseResponse(raw)
	if err != nil {
		slog.Warn("Model response is not a JSON object", "provider", s.provider.Name(), "model", s.opts.Model, "length", len(raw), "err", err)
		return nil, err
	}

	metrics, err := record.Metrics()
	if err != nil {
		return nil, err
	}

	issues := record.Validate()
	for _, issue := range issues {
		slog.Debug("Passport schema deviation", "field", issue.Field, "problem", issue.Problem)
	}

	slog.Info("Extracted passport record",
		"provider", s.provider.Name(),
		"model", s.opts.Model,
		"fields", metrics.TotalFields,
		"null_fields", metrics.NullFields,
		"accuracy_percent", metrics.AccuracyPercent,
		"issues", len(issues))

	return &Extraction{
		Raw:     raw,
		Record:  record,
		Metrics: metrics,
		Issues:  issues,
	}, nil
}
