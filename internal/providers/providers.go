package providers

import (
	"context"
)

// Config represents the configuration for a single completion call
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Prompt      string
}

// Provider defines the interface for an LLM provider.
// A Provider is built once per process and shared by concurrent requests.
type Provider interface {
	Name() string
	Complete(ctx context.Context, config Config) (string, error)
}
