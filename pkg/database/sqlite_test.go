package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "teachat.db")

	db, err := NewDB(DriverPure, path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())

	c, err := db.FindCollection(ctx, "dados_dislia")
	require.NoError(t, err)
	assert.Nil(t, c)

	created, err := db.CreateCollection(ctx, "dados_dislia", "letters", []Example{
		{RowIndex: 0, Input: "caza", Correction: "casa", Embedding: []float32{1, 0}},
		{RowIndex: 1, Input: "pado", Correction: "pato", Embedding: []float32{0.5, 0.25}},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.NoError(t, db.Close())

	reopened, err := OpenExistingDB(DriverPure, path)
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.FindCollection(ctx, "dados_dislia")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "letters", found.EmbeddingModel)

	examples, err := reopened.GetExamples(ctx, found.ID)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "casa", examples[0].Correction)
	assert.Equal(t, []float32{0.5, 0.25}, examples[1].Embedding)

	n, err := reopened.CountExamples(ctx, found.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCreateCollectionDuplicateName(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(DriverPure, MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateCollection(ctx, "c", "m", nil)
	require.NoError(t, err)

	_, err = db.CreateCollection(ctx, "c", "m", []Example{{Input: "x", Correction: "y"}})
	assert.Error(t, err)
}

func TestOpenExistingDBMissing(t *testing.T) {
	_, err := OpenExistingDB(DriverPure, filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)
}
