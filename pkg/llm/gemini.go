package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-pro"

type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float64) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set llm.api_key or GOOGLE_API_KEY)")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

func (c *GeminiClient) Name() string {
	return "gemini:" + c.model
}
