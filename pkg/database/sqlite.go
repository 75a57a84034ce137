package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is the mattn/go-sqlite3 driver name.
	DriverCGO = "sqlite3"
	// DriverPure is the modernc.org/sqlite driver name.
	DriverPure = "sqlite"

	MemoryPath = ":memory:"
)

type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the database at dbPath and makes sure the
// schema exists. An empty driver selects DriverCGO.
func NewDB(driver, dbPath string) (*DB, error) {
	if driver == "" {
		driver = DriverCGO
	}

	if dbPath != MemoryPath {
		if dir := filepath.Dir(dbPath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		conn.SetMaxOpenConns(1)
	}

	db := &DB{
		conn: conn,
		path: dbPath,
	}

	if err := db.setupTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to setup database tables: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) setupTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			embedding_model TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS examples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			collection_id INTEGER NOT NULL,
			row_index INTEGER NOT NULL,
			input TEXT NOT NULL,
			correction TEXT NOT NULL,
			embedding TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (collection_id) REFERENCES collections (id),
			UNIQUE(collection_id, row_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_examples_collection ON examples(collection_id)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %s, error: %w", query, err)
		}
	}

	return nil
}

// FindCollection returns the collection with the given name, or nil when it
// does not exist yet.
func (db *DB) FindCollection(ctx context.Context, name string) (*Collection, error) {
	query := `SELECT id, name, embedding_model, created_at FROM collections WHERE name = ?`

	var c Collection
	err := db.conn.QueryRowContext(ctx, query, name).Scan(&c.ID, &c.Name, &c.EmbeddingModel, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %w", name, err)
	}

	return &c, nil
}

// CreateCollection inserts the collection row and all of its examples in a
// single transaction. Nothing is written if any insert fails.
func (db *DB) CreateCollection(ctx context.Context, name, embeddingModel string, examples []Example) (*Collection, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := Collection{Name: name, EmbeddingModel: embeddingModel}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO collections (name, embedding_model) VALUES (?, ?) RETURNING id, created_at`,
		name, embeddingModel).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert collection %q: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO examples (collection_id, row_index, input, correction, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, example := range examples {
		embeddingJSON, err := json.Marshal(example.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal embedding for row %d: %w", example.RowIndex, err)
		}

		if _, err := stmt.ExecContext(ctx, c.ID, example.RowIndex, example.Input, example.Correction, string(embeddingJSON)); err != nil {
			return nil, fmt.Errorf("failed to insert example row %d: %w", example.RowIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &c, nil
}
