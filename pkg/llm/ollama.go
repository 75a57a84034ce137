package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const DefaultOllamaModel = "llama3.1"

type OllamaClient struct {
	llm         llms.Model
	model       string
	temperature float64
}

func NewOllamaClient(baseURL, model string, temperature float64) (*OllamaClient, error) {
	if model == "" {
		model = DefaultOllamaModel
	}

	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaClient{llm: llm, model: model, temperature: temperature}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("failed to call Ollama API: %w", err)
	}
	return text, nil
}

func (c *OllamaClient) Name() string {
	return "ollama:" + c.model
}
