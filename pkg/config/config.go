package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jcpsimmons/teachat/pkg/database"
	"github.com/jcpsimmons/teachat/pkg/embedding"
	"github.com/jcpsimmons/teachat/pkg/llm"
	"github.com/jcpsimmons/teachat/pkg/store"
)

const EnvPrefix = "TEACHAT"

type IConfig interface {
	Validate() []error
}

type DatasetConfig struct {
	Path string `json:"path" yaml:"path"` // .xlsx or .csv with input/correction columns
}

type StoreConfig struct {
	Path       string `json:"path" yaml:"path"`
	Driver     string `json:"driver" yaml:"driver"` // sqlite3 (cgo) or sqlite (pure Go)
	Collection string `json:"collection" yaml:"collection"`
	TopK       int    `json:"topK" yaml:"top_k"`
}

type EmbeddingConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // ollama or genai
	Model      string `json:"model" yaml:"model"`
	OllamaHost string `json:"ollamaHost" yaml:"ollama_host"`
	BatchSize  int    `json:"batchSize" yaml:"batch_size"`
	Workers    int    `json:"workers" yaml:"workers"`
}

type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // gemini or ollama
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	APIKey      string  `json:"apiKey" yaml:"api_key"`
	OllamaHost  string  `json:"ollamaHost" yaml:"ollama_host"`
	// PromptTemplate optionally replaces the built-in prompt.
	PromptTemplate string `json:"promptTemplate" yaml:"prompt_template"`
}

type ServerConfig struct {
	Port int `json:"port" yaml:"port"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type GlobalConfig struct {
	Dataset   DatasetConfig   `json:"dataset" yaml:"dataset"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", "DISLALIC_DATASET_RAG.xlsx")

	v.SetDefault("store.path", "teachat.db")
	v.SetDefault("store.driver", database.DriverCGO)
	v.SetDefault("store.collection", store.DefaultCollection)
	v.SetDefault("store.top_k", store.DefaultTopK)

	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", embedding.DefaultOllamaModel)
	v.SetDefault("embedding.ollama_host", embedding.DefaultOllamaHost)
	v.SetDefault("embedding.batch_size", 16)
	v.SetDefault("embedding.workers", 1)

	v.SetDefault("llm.provider", llm.ProviderGemini)
	v.SetDefault("llm.model", llm.DefaultGeminiModel)
	v.SetDefault("llm.temperature", llm.DefaultTemperature)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.ollama_host", embedding.DefaultOllamaHost)
	v.SetDefault("llm.prompt_template", "")

	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
}

// Load reads configuration from configFilePath (yaml, json or toml by
// extension) when it is not empty, then applies TEACHAT_* environment
// overrides. The Gemini key may also come from GOOGLE_API_KEY.
func Load(configFilePath string) (*GlobalConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, errors.Wrap(err, "failed to bind api key environment")
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return nil, err
		}
		v.SetConfigFile(configFilePath)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(configFilePath), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Errorf("failed to parse config file %s: %s", configFilePath, err.Error())
		}
	}

	cfg := &GlobalConfig{}
	if err := v.Unmarshal(cfg, func(config *mapstructure.DecoderConfig) {
		config.TagName = "yaml"
	}); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return cfg, nil
}

// Validate checks everything needed to answer chat turns.
func (g *GlobalConfig) Validate() []error {
	errs := g.ValidateSeeding()

	switch g.LLM.Provider {
	case llm.ProviderGemini:
		if g.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key or GOOGLE_API_KEY is required for the gemini provider"))
		}
	case llm.ProviderOllama:
	default:
		errs = append(errs, errors.Errorf("llm.provider must be %s or %s, got %q", llm.ProviderGemini, llm.ProviderOllama, g.LLM.Provider))
	}
	if g.LLM.Temperature < 0 || g.LLM.Temperature > 2 {
		errs = append(errs, errors.Errorf("llm.temperature must be within [0, 2], got %v", g.LLM.Temperature))
	}

	if g.Server.Port <= 0 || g.Server.Port > 65535 {
		errs = append(errs, errors.Errorf("server.port out of range: %d", g.Server.Port))
	}

	return errs
}

// ValidateSeeding checks only what seeding the store needs.
func (g *GlobalConfig) ValidateSeeding() []error {
	var errs = make([]error, 0)

	if g.Dataset.Path == "" {
		errs = append(errs, errors.New("dataset.path must not be empty"))
	}

	if g.Store.Path == "" {
		errs = append(errs, errors.New("store.path must not be empty"))
	}
	switch g.Store.Driver {
	case database.DriverCGO, database.DriverPure:
	default:
		errs = append(errs, errors.Errorf("store.driver must be %q or %q, got %q", database.DriverCGO, database.DriverPure, g.Store.Driver))
	}
	if g.Store.TopK <= 0 {
		errs = append(errs, errors.Errorf("store.top_k must be positive, got %d", g.Store.TopK))
	}

	switch g.Embedding.Provider {
	case "ollama":
	case "genai":
		if g.LLM.APIKey == "" {
			errs = append(errs, errors.New("embedding.provider genai needs llm.api_key or GOOGLE_API_KEY"))
		}
	default:
		errs = append(errs, errors.Errorf("embedding.provider must be ollama or genai, got %q", g.Embedding.Provider))
	}

	return errs
}

// LockPath is the advisory lock file used while seeding the store.
func (g *GlobalConfig) LockPath() string {
	if g.Store.Path == database.MemoryPath {
		return ""
	}
	return g.Store.Path + ".lock"
}
