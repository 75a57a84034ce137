// Package store is the example store: a named collection of (input,
// correction) pairs searchable by similarity to free text.
package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jcpsimmons/teachat/pkg/database"
	"github.com/jcpsimmons/teachat/pkg/dataset"
	"github.com/jcpsimmons/teachat/pkg/embedding"
	"github.com/jcpsimmons/teachat/pkg/similarity"
)

const (
	DefaultCollection = "dados_dislia"
	DefaultTopK       = 3
)

// InitResult reports what Initialize did with the collection.
type InitResult int

const (
	Created InitResult = iota + 1
	Reused
)

func (r InitResult) String() string {
	switch r {
	case Created:
		return "created"
	case Reused:
		return "reused"
	default:
		return "unknown"
	}
}

// Source yields the rows to seed a new collection with. It is only called
// when the collection does not exist yet.
type Source func() ([]dataset.Row, error)

// FromFile reads the spreadsheet at path.
func FromFile(path string) Source {
	return func() ([]dataset.Row, error) {
		return dataset.Load(path)
	}
}

// FromRows seeds from rows already in memory.
func FromRows(rows []dataset.Row) Source {
	return func() ([]dataset.Row, error) {
		return rows, nil
	}
}

type Options struct {
	Collection string
	TopK       int
	BatchSize  int
	Workers    int
	// LockPath, when set, is an advisory file lock held while seeding so two
	// processes do not create the same collection at once.
	LockPath string
	Progress func(completed, total int)
}

type Store struct {
	db       *database.DB
	embedder embedding.Embedder
	opts     Options

	collection *database.Collection
	examples   []database.Example
}

func New(db *database.DB, embedder embedding.Embedder, opts Options) *Store {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Store{db: db, embedder: embedder, opts: opts}
}

// Initialize reuses the named collection when it exists and otherwise
// creates it from source. It must complete before Query is used.
func (s *Store) Initialize(ctx context.Context, source Source) (InitResult, error) {
	existing, err := s.db.FindCollection(ctx, s.opts.Collection)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return Reused, s.load(ctx, existing)
	}

	if s.opts.LockPath != "" {
		fl := flock.New(s.opts.LockPath)
		locked, err := fl.TryLockContext(ctx, 250*time.Millisecond)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to lock %s", s.opts.LockPath)
		}
		if !locked {
			return 0, errors.Errorf("could not acquire seeding lock %s", s.opts.LockPath)
		}
		defer fl.Unlock()

		// someone else may have seeded while we waited
		existing, err = s.db.FindCollection(ctx, s.opts.Collection)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return Reused, s.load(ctx, existing)
		}
	}

	rows, err := source()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read example source")
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Input
	}

	zap.S().Infow("Seeding collection",
		"collection", s.opts.Collection,
		"rows", len(rows),
		"embedder", s.embedder.Name())

	vectors, err := embedding.EmbedConcurrent(ctx, s.embedder, texts, s.opts.BatchSize, s.opts.Workers, s.opts.Progress)
	if err != nil {
		return 0, errors.Wrap(err, "failed to embed examples")
	}

	examples := make([]database.Example, len(rows))
	for i, row := range rows {
		examples[i] = database.Example{
			RowIndex:   row.Index,
			Input:      row.Input,
			Correction: row.Correction,
			Embedding:  vectors[i],
		}
	}

	collection, err := s.db.CreateCollection(ctx, s.opts.Collection, s.embedder.Name(), examples)
	if err != nil {
		return 0, errors.Wrap(err, "failed to store examples")
	}

	return Created, s.load(ctx, collection)
}

func (s *Store) load(ctx context.Context, collection *database.Collection) error {
	if collection.EmbeddingModel != s.embedder.Name() {
		zap.S().Warnw("Collection was seeded with a different embedder",
			"collection", collection.Name,
			"seeded_with", collection.EmbeddingModel,
			"embedder", s.embedder.Name())
	}

	examples, err := s.db.GetExamples(ctx, collection.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to load collection %q", collection.Name)
	}

	s.collection = collection
	s.examples = examples
	return nil
}

// Query returns up to TopK examples whose input is most similar to text,
// most similar first.
func (s *Store) Query(ctx context.Context, text string) ([]database.Example, error) {
	if s.collection == nil {
		return nil, errors.New("store is not initialized")
	}

	vector, err := s.embedder.EmbedQuery(ctx, dataset.Normalize(text))
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	matches, err := similarity.TopK(vector, s.examples, s.opts.TopK)
	if err != nil {
		return nil, err
	}

	examples := make([]database.Example, len(matches))
	for i, m := range matches {
		zap.S().Debugw("Retrieved example", "row", m.Example.RowIndex, "similarity", m.Similarity)
		examples[i] = m.Example
	}
	return examples, nil
}

// Collection is nil until Initialize succeeds.
func (s *Store) Collection() *database.Collection {
	return s.collection
}

// Examples returns the loaded examples in row order.
func (s *Store) Examples() []database.Example {
	return s.examples
}
