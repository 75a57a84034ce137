package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/jcpsimmons/teachat/pkg/database"
)

// Match is an example paired with its similarity to a query vector.
type Match struct {
	Example    database.Example
	Similarity float64
}

func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d vs %d", len(a), len(b))
	}

	var dotProduct, normA, normB float64

	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dotProduct / (normA * normB), nil
}

// TopK ranks examples by cosine similarity to query, highest first, and
// returns at most k of them. Equal scores keep row order.
func TopK(query []float32, examples []database.Example, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(examples))
	for _, example := range examples {
		sim, err := CosineSimilarity(query, example.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to score example %d: %w", example.RowIndex, err)
		}
		matches = append(matches, Match{Example: example, Similarity: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}
