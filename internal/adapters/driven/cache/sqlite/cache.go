// Package sqlite provides a local embedding cache backed by SQLite.
// Vectors are keyed by content hash, so re-ingesting an unchanged
// document costs no embedding provider call even when the remote index
// has not seen it yet.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/openparl/parlsearch/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	content_hash TEXT PRIMARY KEY,
	model        TEXT NOT NULL,
	vector       BLOB NOT NULL,
	created_at   INTEGER NOT NULL
);
`

// Cache is a SQLite-backed embedding cache.
type Cache struct {
	db    *sql.DB
	model string
}

// NewCache opens (or creates) the cache database at dataDir for the
// given embedding model. If dataDir is empty, defaults to
// ~/.parlsearch/data. Vectors from other models are invisible, since a
// model change invalidates every cached vector.
func NewCache(dataDir, model string) (*Cache, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".parlsearch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "embeddings.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db, model: model}, nil
}

// Get returns the cached vector for a content hash.
func (c *Cache) Get(ctx context.Context, contentHash string) ([]float32, bool, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE content_hash = ? AND model = ?`,
		contentHash, c.model).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query embedding cache: %w", err)
	}
	return bytesToFloat32Slice(blob), true, nil
}

// Put stores a vector under its content hash.
func (c *Cache) Put(ctx context.Context, contentHash string, vector []float32) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO embeddings (content_hash, model, vector, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			model = excluded.model,
			vector = excluded.vector,
			created_at = excluded.created_at`,
		contentHash, c.model, float32SliceToBytes(vector), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// float32SliceToBytes converts a vector to a little-endian byte blob.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte blob back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
