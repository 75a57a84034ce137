// Package pipeline runs one retrieval-augmented classification: retrieve
// examples, render the prompt, call the model, parse the answer.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jcpsimmons/teachat/pkg/database"
	"github.com/jcpsimmons/teachat/pkg/llm"
	"github.com/jcpsimmons/teachat/pkg/response"
)

type Retriever interface {
	Query(ctx context.Context, text string) ([]database.Example, error)
}

type PromptBuilder interface {
	Build(userInput string, examples []database.Example) (string, error)
}

type Pipeline struct {
	retriever Retriever
	builder   PromptBuilder
	generator llm.Generator
}

func New(retriever Retriever, builder PromptBuilder, generator llm.Generator) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		builder:   builder,
		generator: generator,
	}
}

// Run classifies input. Model output problems (empty, malformed, nothing
// found) come back as an Outcome; a failed retrieval, render or model call
// is returned as an error.
func (p *Pipeline) Run(ctx context.Context, input string) (response.Outcome, error) {
	start := time.Now()

	examples, err := p.retriever.Query(ctx, input)
	if err != nil {
		return response.Outcome{}, fmt.Errorf("failed to retrieve examples: %w", err)
	}

	prompt, err := p.builder.Build(input, examples)
	if err != nil {
		return response.Outcome{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return response.Outcome{}, err
	}

	zap.L().Debug("Model response",
		zap.String("model", p.generator.Name()),
		zap.Int("examples", len(examples)),
		zap.String("raw", raw))

	outcome := response.Parse(raw)

	zap.L().Info("Classified input",
		zap.String("kind", string(outcome.Kind)),
		zap.Duration("elapsed", time.Since(start)))

	return outcome, nil
}
