// Package embeddingtest provides a deterministic embedder for tests.
package embeddingtest

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters embeds text as its a-z letter histogram, accents folded. Similar
// spellings land close together, which is all the retrieval tests need.
type Letters struct{}

func (Letters) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := Letters{}.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (Letters) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), strings.ToLower(text))
	if err != nil {
		return nil, err
	}

	v := make([]float32, 26)
	for _, r := range folded {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v, nil
}

func (Letters) Name() string { return "letters" }
