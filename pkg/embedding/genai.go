package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	DefaultGenAIModel = "gemini-embedding-001"

	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// GenAIClient embeds text with the Gemini API. Documents and queries use the
// retrieval task types.
type GenAIClient struct {
	client *genai.Client
	model  string
}

func NewGenAIClient(ctx context.Context, apiKey, model string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultGenAIModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{client: client, model: model}, nil
}

func (c *GenAIClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, texts, taskRetrievalDocument)
}

func (c *GenAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return vectors[0], nil
}

func (c *GenAIClient) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx, c.model, contents, &genai.EmbedContentConfig{
		TaskType: task,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (c *GenAIClient) Name() string {
	return "genai:" + c.model
}
