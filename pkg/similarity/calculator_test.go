package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcpsimmons/teachat/pkg/database"
)

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Zero(t, sim)

	_, err = CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

func TestTopK(t *testing.T) {
	examples := []database.Example{
		{RowIndex: 0, Correction: "far", Embedding: []float32{0, 1}},
		{RowIndex: 1, Correction: "near", Embedding: []float32{1, 0.1}},
		{RowIndex: 2, Correction: "mid", Embedding: []float32{1, 1}},
		{RowIndex: 3, Correction: "same", Embedding: []float32{2, 0}},
	}

	matches, err := TopK([]float32{1, 0}, examples, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	var got []string
	for _, m := range matches {
		got = append(got, m.Example.Correction)
	}
	assert.Equal(t, []string{"same", "near", "mid"}, got)
}

func TestTopKFewerThanK(t *testing.T) {
	examples := []database.Example{{Embedding: []float32{1}}}

	matches, err := TopK([]float32{1}, examples, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = TopK([]float32{1}, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestTopKDimensionMismatch(t *testing.T) {
	examples := []database.Example{{Embedding: []float32{1, 2, 3}}}

	_, err := TopK([]float32{1}, examples, 3)
	assert.Error(t, err)
}
