// Package embedding turns example and query text into vectors.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Embedder produces vectors for the store. Documents and queries go through
// separate calls because some providers tune the vector to the task.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// EmbedConcurrent embeds texts in batches of batchSize using at most
// maxWorkers concurrent calls. Results keep the order of texts.
func EmbedConcurrent(ctx context.Context, e Embedder, texts []string, batchSize, maxWorkers int, progressCallback func(completed, total int)) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 16
	}
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	vectors := make([][]float32, len(texts))
	total := len(texts)

	var mu sync.Mutex
	completed := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		g.Go(func() error {
			batch, err := e.EmbedDocuments(ctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("rows %d-%d: %w", start, end-1, err)
			}
			if len(batch) != end-start {
				return fmt.Errorf("rows %d-%d: got %d embeddings for %d texts", start, end-1, len(batch), end-start)
			}
			copy(vectors[start:end], batch)

			mu.Lock()
			completed += end - start
			if progressCallback != nil {
				progressCallback(completed, total)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("embedding errors occurred: %w", err)
	}

	return vectors, nil
}
