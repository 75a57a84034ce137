package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
)

// OpenExistingDB opens a database that was seeded earlier. It does not create
// the file or the schema.
func OpenExistingDB(driver, dbPath string) (*DB, error) {
	if driver == "" {
		driver = DriverCGO
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: dbPath,
	}

	return db, nil
}

// GetExamples returns every example of the collection in row order.
func (db *DB) GetExamples(ctx context.Context, collectionID int) ([]Example, error) {
	query := `SELECT id, row_index, input, correction, embedding FROM examples WHERE collection_id = ? ORDER BY row_index`
	rows, err := db.conn.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query examples: %w", err)
	}
	defer rows.Close()

	var examples []Example
	for rows.Next() {
		var example Example
		var embeddingJSON string

		if err := rows.Scan(&example.ID, &example.RowIndex, &example.Input, &example.Correction, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan example row: %w", err)
		}

		if err := json.Unmarshal([]byte(embeddingJSON), &example.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding for example %d: %w", example.ID, err)
		}

		examples = append(examples, example)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating example rows: %w", err)
	}

	return examples, nil
}

// CountExamples returns how many examples the collection holds.
func (db *DB) CountExamples(ctx context.Context, collectionID int) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM examples WHERE collection_id = ?`, collectionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count examples: %w", err)
	}
	return n, nil
}
