// Package app wires configuration into a ready-to-use classification stack.
package app

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jcpsimmons/teachat/pkg/chat"
	"github.com/jcpsimmons/teachat/pkg/config"
	"github.com/jcpsimmons/teachat/pkg/database"
	"github.com/jcpsimmons/teachat/pkg/embedding"
	"github.com/jcpsimmons/teachat/pkg/llm"
	"github.com/jcpsimmons/teachat/pkg/pipeline"
	"github.com/jcpsimmons/teachat/pkg/prompt"
	"github.com/jcpsimmons/teachat/pkg/store"
)

type App struct {
	Config    *config.GlobalConfig
	DB        *database.DB
	Embedder  embedding.Embedder
	Generator llm.Generator
	Store     *store.Store
	Pipeline  *pipeline.Pipeline
	Sessions  *chat.Manager
}

// Options replace the configured backends. Tests use them to avoid network
// calls.
type Options struct {
	Embedder  embedding.Embedder
	Generator llm.Generator
	Progress  func(completed, total int)
	// SeedOnly skips the model client; Pipeline and Sessions stay nil.
	SeedOnly bool
}

// Open builds every component from cfg. The store still has to be seeded
// with Seed before the pipeline can answer.
func Open(ctx context.Context, cfg *config.GlobalConfig, opts Options) (*App, error) {
	embedder := opts.Embedder
	if embedder == nil {
		e, err := NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		embedder = e
	}

	generator := opts.Generator
	if generator == nil && !opts.SeedOnly {
		g, err := llm.New(ctx, llm.Config{
			Provider:    cfg.LLM.Provider,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			APIKey:      cfg.LLM.APIKey,
			OllamaHost:  cfg.LLM.OllamaHost,
		})
		if err != nil {
			return nil, err
		}
		generator = g
	}

	builder := prompt.NewBuilder()
	if cfg.LLM.PromptTemplate != "" {
		b, err := prompt.LoadBuilder(cfg.LLM.PromptTemplate)
		if err != nil {
			return nil, err
		}
		builder = b
	}

	db, err := database.NewDB(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open store")
	}

	s := store.New(db, embedder, store.Options{
		Collection: cfg.Store.Collection,
		TopK:       cfg.Store.TopK,
		BatchSize:  cfg.Embedding.BatchSize,
		Workers:    cfg.Embedding.Workers,
		LockPath:   cfg.LockPath(),
		Progress:   opts.Progress,
	})
	a := &App{
		Config:    cfg,
		DB:        db,
		Embedder:  embedder,
		Generator: generator,
		Store:     s,
	}
	if generator != nil {
		a.Pipeline = pipeline.New(s, builder, generator)
		a.Sessions = chat.NewManager(a.Pipeline)
	}

	zap.L().Info("Opened store",
		zap.String("path", db.Path()),
		zap.String("embedder", embedder.Name()))

	return a, nil
}

// Seed initialises the collection from the configured dataset.
func (a *App) Seed(ctx context.Context) (store.InitResult, error) {
	result, err := a.Store.Initialize(ctx, store.FromFile(a.Config.Dataset.Path))
	if err != nil {
		return 0, err
	}

	zap.L().Info("Collection ready",
		zap.String("collection", a.Store.Collection().Name),
		zap.Stringer("result", result),
		zap.Int("examples", len(a.Store.Examples())))
	return result, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// NewEmbedder builds the configured embedder. For Ollama it also checks the
// server is up and the needed models are pulled.
func NewEmbedder(ctx context.Context, cfg *config.GlobalConfig) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "genai":
		return embedding.NewGenAIClient(ctx, cfg.LLM.APIKey, cfg.Embedding.Model)
	case "ollama":
		client, err := embedding.NewOllamaClient(cfg.Embedding.OllamaHost, cfg.Embedding.Model)
		if err != nil {
			return nil, err
		}
		if err := client.CheckConnection(ctx); err != nil {
			return nil, err
		}

		var extra []string
		if cfg.LLM.Provider == llm.ProviderOllama && cfg.LLM.OllamaHost == cfg.Embedding.OllamaHost {
			extra = append(extra, cfg.LLM.Model)
		}
		if err := client.CheckModelsAvailable(ctx, extra...); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, errors.Errorf("unsupported embedding provider: %s (use 'ollama' or 'genai')", cfg.Embedding.Provider)
	}
}
