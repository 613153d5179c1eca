package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrConfig is returned when the process environment cannot produce a usable configuration.
var ErrConfig = errors.New("invalid configuration")

// Config holds everything the extractor reads from the environment
type Config struct {
	// LLM provider
	Provider    string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	LLMTimeout  time.Duration
	OpenAIURL   string
	OllamaURL   string

	// OCR engine
	OCREngine         string
	OCRLanguage       string
	VisionCredentials string

	// Request handling
	UploadDir       string
	MaxUploadBytes  int64
	PipelineTimeout time.Duration

	LogLevel slog.Level
}

// Load reads the configuration from the process environment.
// .env files are loaded by the root command before this runs.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Provider:          strings.ToLower(env("LLM_PROVIDER", "gemini")),
		OpenAIURL:         env("OPENAI_URL", "https://api.openai.com"),
		OllamaURL:         env("OLLAMA_URL", env("OLLAMA_HOST", "http://localhost:11434")),
		OCREngine:         strings.ToLower(env("OCR_ENGINE", "tesseract")),
		OCRLanguage:       env("OCR_LANG", "en"),
		VisionCredentials: env("GOOGLE_APPLICATION_CREDENTIALS", ""),
		UploadDir:         env("UPLOAD_DIR", os.TempDir()),
	}

	var err error
	if cfg.Temperature, err = strconv.ParseFloat(env("LLM_TEMPERATURE", "0.2"), 64); err != nil {
		return nil, fmt.Errorf("%w: LLM_TEMPERATURE: %w", ErrConfig, err)
	}
	if cfg.MaxTokens, err = strconv.Atoi(env("LLM_MAX_TOKENS", "512")); err != nil {
		return nil, fmt.Errorf("%w: LLM_MAX_TOKENS: %w", ErrConfig, err)
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(env("MAX_UPLOAD_BYTES", "10485760"), 10, 64); err != nil {
		return nil, fmt.Errorf("%w: MAX_UPLOAD_BYTES: %w", ErrConfig, err)
	}
	if cfg.LLMTimeout, err = parseDuration(env("LLM_HTTP_TIMEOUT", "0")); err != nil {
		return nil, fmt.Errorf("%w: LLM_HTTP_TIMEOUT: %w", ErrConfig, err)
	}
	if cfg.PipelineTimeout, err = parseDuration(env("PIPELINE_TIMEOUT", "0")); err != nil {
		return nil, fmt.Errorf("%w: PIPELINE_TIMEOUT: %w", ErrConfig, err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %w", ErrConfig, err)
	}

	switch cfg.Provider {
	case "gemini":
		// GOOGLE_API_KEY is what the Google SDKs look for; GEMINI_API_KEY is accepted too
		cfg.APIKey = env("GOOGLE_API_KEY", env("GEMINI_API_KEY", ""))
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: GOOGLE_API_KEY environment variable not set", ErrConfig)
		}
	case "openai":
		cfg.APIKey = env("OPENAI_API_KEY", "")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY environment variable not set", ErrConfig)
		}
	case "ollama":
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", ErrConfig, cfg.Provider)
	}
	cfg.Model = env("LLM_MODEL", DefaultModel(cfg.Provider))

	switch cfg.OCREngine {
	case "tesseract", "vision":
	default:
		return nil, fmt.Errorf("%w: unsupported OCR engine: %s", ErrConfig, cfg.OCREngine)
	}

	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: LLM_MAX_TOKENS must be positive", ErrConfig)
	}

	return cfg, nil
}

// DefaultModel returns the model used for a provider when LLM_MODEL is unset
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4o"
	case "ollama":
		return "mistral-small3.2:24b"
	default:
		return ""
	}
}

// parseDuration accepts Go durations ("30s") or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
