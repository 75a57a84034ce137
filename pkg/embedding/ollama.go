package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"
)

// OllamaClient embeds text with a local Ollama server.
type OllamaClient struct {
	baseURL  string
	model    string
	embedder *embeddings.EmbedderImpl
}

type listModelsResponse struct {
	Models []modelInfo `json:"models"`
}

type modelInfo struct {
	Name string `json:"name"`
}

func NewOllamaClient(baseURL, model string) (*OllamaClient, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	llm, err := ollama.New(ollama.WithServerURL(baseURL), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama embedder: %w", err)
	}

	return &OllamaClient{
		baseURL:  baseURL,
		model:    model,
		embedder: embedder,
	}, nil
}

func (c *OllamaClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to call Ollama API: %w", err)
	}
	return vectors, nil
}

func (c *OllamaClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to call Ollama API: %w", err)
	}
	return vector, nil
}

func (c *OllamaClient) Name() string {
	return "ollama:" + c.model
}

// CheckConnection verifies that Ollama is running and accessible
func (c *OllamaClient) CheckConnection(ctx context.Context) error {
	resp, err := c.getTags(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to Ollama at %s: %w\n\nPlease ensure:\n1. Ollama is installed (visit https://ollama.ai)\n2. Ollama is running (try 'ollama serve')\n3. The correct host is specified (default: %s)", c.baseURL, err, DefaultOllamaHost)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama server responded with status %d\n\nPlease check that Ollama is running properly", resp.StatusCode)
	}

	return nil
}

// CheckModelsAvailable verifies that the embedding model and any extra
// models are installed
func (c *OllamaClient) CheckModelsAvailable(ctx context.Context, extra ...string) error {
	resp, err := c.getTags(ctx)
	if err != nil {
		return fmt.Errorf("failed to check available models: %w", err)
	}
	defer resp.Body.Close()

	var listResp listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return fmt.Errorf("failed to parse models list: %w", err)
	}

	installed := make([]string, 0, len(listResp.Models))
	for _, model := range listResp.Models {
		installed = append(installed, model.Name)
	}

	missing := MissingModels(installed, append([]string{c.model}, extra...))
	if len(missing) > 0 {
		return fmt.Errorf("missing required models: %v\n\nPlease install them with:\n%s",
			missing,
			generateInstallCommands(missing))
	}

	return nil
}

func (c *OllamaClient) getTags(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

// MissingModels returns the required names not present in installed. A
// ":latest" tag matches the bare name.
func MissingModels(installed, required []string) []string {
	modelMap := make(map[string]bool)
	for _, name := range installed {
		modelMap[name] = true
		if strings.HasSuffix(name, ":latest") {
			modelMap[strings.TrimSuffix(name, ":latest")] = true
		}
	}

	var missing []string
	for _, name := range required {
		if name != "" && !modelMap[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func generateInstallCommands(models []string) string {
	var commands []string
	for _, model := range models {
		commands = append(commands, fmt.Sprintf("ollama pull %s", model))
	}
	return strings.Join(commands, "\n")
}
