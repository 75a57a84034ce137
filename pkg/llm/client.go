// Package llm sends rendered prompts to a hosted text generation model.
package llm

import (
	"context"
	"fmt"
)

const DefaultTemperature = 0.4

// Generator makes one generation call per prompt. Implementations do not
// retry; an error or empty text ends the turn.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

type Config struct {
	Provider    string
	Model       string
	Temperature float64
	APIKey      string
	OllamaHost  string
}

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// New builds the generator named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.Model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s (use '%s' or '%s')", cfg.Provider, ProviderGemini, ProviderOllama)
	}
}
