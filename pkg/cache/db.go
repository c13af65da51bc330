package cache

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

const memoryPath = ":memory:"

// Open opens the cache database at path. A file whose schema cannot be applied
// is treated as corrupt: it is removed and recreated empty.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	db, err := open(path)
	if err == nil || path == memoryPath {
		return db, err
	}

	log.Printf("cache at %s is unusable (%v), resetting it", path, err)
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		return nil, fmt.Errorf("reset cache: %w", rmErr)
	}
	return open(path)
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection: sqlite serialises writers anyway and :memory: is per connection
	db.SetMaxOpenConns(1)

	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
