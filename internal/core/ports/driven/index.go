package driven

import (
	"context"

	"github.com/openparl/parlsearch/internal/core/domain"
)

// SearchIndex is the external search/vector index boundary. It owns
// document persistence; the pipeline never caches documents beyond the
// current chunk.
type SearchIndex interface {
	// EnsureCollection creates the named collection with the field
	// mapping and vector dimensionality if absent, or validates an
	// existing one. An existing collection with incompatible vector
	// dimensionality fails wrapping domain.ErrSchemaMismatch.
	EnsureCollection(ctx context.Context, collection string, dims int) error

	// BulkUpsert writes embedded documents keyed by identity. Writing an
	// existing key replaces the document. Per-item failures are isolated
	// and reported in the result; a full-batch transport failure is
	// retried with backoff before surfacing domain.ErrIndexWriteFailed.
	BulkUpsert(ctx context.Context, collection string, docs []domain.EmbeddedDocument) (*BulkResult, error)

	// DeleteCollection removes the named collection and every document
	// in it. Deleting an absent collection is not an error.
	DeleteCollection(ctx context.Context, collection string) error

	// StoredHashes returns the content hashes currently stored for the
	// given identity keys. Missing keys are absent from the map.
	StoredHashes(ctx context.Context, collection string, ids []string) (map[string]string, error)

	// Search executes a planned hybrid query, returning scored hits.
	// Transport or index errors wrap domain.ErrSearchUnavailable.
	Search(ctx context.Context, plan domain.QueryPlan) ([]domain.Hit, error)

	// Close releases resources.
	Close() error
}

// BulkResult reports per-document outcomes of one bulk upsert.
type BulkResult struct {
	// Written is the number of documents successfully upserted.
	Written int

	// Failed lists documents the index rejected, with reasons.
	Failed []ItemFailure
}

// ItemFailure is one rejected document within a bulk request.
type ItemFailure struct {
	// ID is the document identity key.
	ID string

	// Reason is the index's stated rejection reason.
	Reason string
}
