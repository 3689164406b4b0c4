package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Azure OpenAI deployments
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector per
	// input text in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1024, 1536).
	// Must match the index collection's vector dimensionality.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache stores vectors keyed by content hash so unchanged
// documents cost no provider calls on re-ingestion.
type EmbeddingCache interface {
	// Get returns the cached vector for a content hash, or ok=false.
	Get(ctx context.Context, contentHash string) (vector []float32, ok bool, err error)

	// Put stores a vector under its content hash.
	Put(ctx context.Context, contentHash string, vector []float32) error

	// Close releases resources.
	Close() error
}
