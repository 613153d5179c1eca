package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/passport-extractor/passport-extractor/internal/config"
	"github.com/passport-extractor/passport-extractor/internal/evalcmd"
	"github.com/passport-extractor/passport-extractor/internal/gemini"
	"github.com/passport-extractor/passport-extractor/internal/ocr"
	"github.com/passport-extractor/passport-extractor/internal/ollama"
	"github.com/passport-extractor/passport-extractor/internal/openai"
	"github.com/passport-extractor/passport-extractor/internal/passport"
	"github.com/passport-extractor/passport-extractor/internal/pipeline"
	"github.com/passport-extractor/passport-extractor/internal/providers"
)

// app holds the process-wide handles. The OCR engine and LLM client are
// built once and shared by every request.
type app struct {
	cfg      *config.Config
	engine   ocr.Engine
	provider providers.Provider
	pipeline *pipeline.Pipeline
	closers  []io.Closer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	a.engine, err = newOCREngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.engine)

	a.provider, err = newProvider(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := a.provider.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	a.pipeline = pipeline.New(
		ocr.NewService(a.engine),
		passport.NewService(a.provider, passport.Options{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}),
		cfg.PipelineTimeout,
	)

	slog.Info("Pipeline ready",
		"ocr_engine", a.engine.Name(),
		"provider", a.provider.Name(),
		"model", cfg.Model)

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Warn("Unable to close resource", "err", err)
		}
	}
	a.closers = nil
}

func newOCREngine(ctx context.Context, cfg *config.Config) (ocr.Engine, error) {
	engine, err := ocr.NewEngine(ctx, cfg.OCREngine, ocr.Settings{
		Language:        cfg.OCRLanguage,
		CredentialsFile: cfg.VisionCredentials,
	})
	if errors.Is(err, ocr.ErrUnknownEngine) {
		return nil, fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	return engine, err
}

func newProvider(ctx context.Context, cfg *config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.New(ctx, cfg.APIKey)
	case "openai":
		return openai.New(cfg.APIKey, cfg.OpenAIURL, cfg.LLMTimeout), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", config.ErrConfig, cfg.Provider)
	}
}

// evalSetup adapts the application wiring to the eval commands
func evalSetup(ctx context.Context) (*evalcmd.Env, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, err
	}
	return &evalcmd.Env{
		Runner:      a.pipeline,
		Provider:    a.provider.Name(),
		Model:       a.cfg.Model,
		OCREngine:   a.engine.Name(),
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Close:       a.Close,
	}, nil
}
