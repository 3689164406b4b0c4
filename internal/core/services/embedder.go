package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/logger"
)

// Batching bounds. A batch closes when it reaches the document count or
// when its accumulated text would exceed the byte bound, whichever
// comes first.
const (
	DefaultBatchSize = 96
	DefaultMaxBytes  = 256 * 1024

	embedMaxRetries = 3
	embedRetryDelay = 1 * time.Second
)

// BatchFailure reports one embedding batch the provider rejected after
// retries. The documents in it are dropped from the run, not the run
// itself.
type BatchFailure struct {
	// Docs is how many documents the failed batch carried.
	Docs int

	// Err is the provider error, wrapping domain.ErrEmbeddingFailed.
	Err error
}

// Batcher embeds documents in bounded batches, skipping documents whose
// stored content hash is unchanged and reusing locally cached vectors.
type Batcher struct {
	provider   driven.EmbeddingService
	cache      driven.EmbeddingCache
	limiter    *rate.Limiter
	batchSize  int
	maxBytes   int
	maxRetries int
	retryDelay time.Duration
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithCache attaches a local embedding cache.
func WithCache(cache driven.EmbeddingCache) BatcherOption {
	return func(b *Batcher) { b.cache = cache }
}

// WithBatchSize overrides the per-batch document bound.
func WithBatchSize(n int) BatcherOption {
	return func(b *Batcher) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithEmbedRate bounds provider calls per second.
func WithEmbedRate(perSecond float64) BatcherOption {
	return func(b *Batcher) {
		if perSecond > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewBatcher creates an embedding batcher over the given provider.
func NewBatcher(provider driven.EmbeddingService, opts ...BatcherOption) *Batcher {
	b := &Batcher{
		provider:   provider,
		batchSize:  DefaultBatchSize,
		maxBytes:   DefaultMaxBytes,
		maxRetries: embedMaxRetries,
		retryDelay: embedRetryDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EmbedDocuments embeds the given documents. Documents whose identity
// key appears in stored with a matching content hash are counted as
// unchanged and not returned; they need neither a new vector nor a
// rewrite. Batches the provider rejects after retries are isolated into
// failures rather than aborting the remainder.
func (b *Batcher) EmbedDocuments(ctx context.Context, docs []domain.Document, stored map[string]string) (embedded []domain.EmbeddedDocument, unchanged int, failures []BatchFailure) {
	model := b.provider.ModelName()

	var pending []domain.Document
	var pendingHashes []string

	for _, doc := range docs {
		hash := domain.ContentHash(doc.EmbeddableText())

		if stored[doc.DocumentURI()] == hash {
			unchanged++
			continue
		}

		if vector, ok := b.cacheGet(ctx, hash); ok {
			embedded = append(embedded, domain.EmbeddedDocument{
				Document:    doc,
				Vector:      vector,
				Model:       model,
				ContentHash: hash,
			})
			continue
		}

		pending = append(pending, doc)
		pendingHashes = append(pendingHashes, hash)
	}

	for start := 0; start < len(pending); {
		end := b.batchEnd(pending, start)
		batch := pending[start:end]
		hashes := pendingHashes[start:end]

		vectors, err := b.embedBatch(ctx, batch)
		if err != nil {
			failures = append(failures, BatchFailure{
				Docs: len(batch),
				Err:  fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err),
			})
			start = end
			continue
		}

		for i, doc := range batch {
			embedded = append(embedded, domain.EmbeddedDocument{
				Document:    doc,
				Vector:      vectors[i],
				Model:       model,
				ContentHash: hashes[i],
			})
			b.cachePut(ctx, hashes[i], vectors[i])
		}
		start = end
	}

	return embedded, unchanged, failures
}

// batchEnd returns the exclusive end index of the batch starting at
// start, honouring both the count and byte bounds. A single oversized
// document still forms a batch of one.
func (b *Batcher) batchEnd(docs []domain.Document, start int) int {
	bytes := 0
	end := start
	for end < len(docs) && end-start < b.batchSize {
		size := len(docs[end].EmbeddableText())
		if end > start && bytes+size > b.maxBytes {
			break
		}
		bytes += size
		end++
	}
	return end
}

// embedBatch calls the provider with retries and backoff.
func (b *Batcher) embedBatch(ctx context.Context, docs []domain.Document) ([][]float32, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.EmbeddableText()
	}

	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vectors, err := b.provider.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if attempt < b.maxRetries {
			delay := b.retryDelay << (attempt - 1)
			logger.Debug("Embedding batch of %d failed (attempt %d): %v, retrying in %v", len(texts), attempt, err, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, lastErr
}

// cacheGet looks up a vector, treating cache errors as misses.
func (b *Batcher) cacheGet(ctx context.Context, hash string) ([]float32, bool) {
	if b.cache == nil {
		return nil, false
	}
	vector, ok, err := b.cache.Get(ctx, hash)
	if err != nil {
		logger.Debug("Embedding cache read failed: %v", err)
		return nil, false
	}
	return vector, ok
}

// cachePut stores a vector, best effort.
func (b *Batcher) cachePut(ctx context.Context, hash string, vector []float32) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Put(ctx, hash, vector); err != nil {
		logger.Debug("Embedding cache write failed: %v", err)
	}
}
