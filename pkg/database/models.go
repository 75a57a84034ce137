package database

// Collection is a named set of examples seeded from one dataset.
type Collection struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	EmbeddingModel string `json:"embedding_model"`
	CreatedAt      string `json:"created_at"`
}

type Example struct {
	ID         int       `json:"id"`
	RowIndex   int       `json:"row_index"`
	Input      string    `json:"input"`
	Correction string    `json:"correction"`
	Embedding  []float32 `json:"embedding,omitempty"`
}
