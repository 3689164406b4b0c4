package driven

import (
	"context"

	"github.com/openparl/parlsearch/internal/core/domain"
)

// UpstreamSource fetches raw records from a parliamentary API.
// Implementations handle pagination, rate limiting and retries
// internally; the orchestrator only sees pages.
type UpstreamSource interface {
	// Source returns the source identifier.
	Source() domain.Source

	// FetchPage returns one page of raw records for the date range.
	// A nil cursor starts from the beginning; the returned page carries
	// the continuation cursor, nil at end of data.
	//
	// Retryable failures (timeout, 5xx, rate limit) are retried with
	// backoff internally. On exhaustion the error wraps
	// domain.ErrUpstreamUnavailable and carries the cursor reached, so
	// partial progress survives. Other 4xx responses fail immediately
	// wrapping domain.ErrUpstreamRejected.
	FetchPage(ctx context.Context, r domain.DateRange, cursor *domain.Cursor) (*domain.RawPage, error)
}

// Enricher supplements a normalised document with source-side context
// that needs further API calls: debate parent hierarchies, full text for
// truncated question summaries. Enrichment failures are non-fatal; the
// document is kept as-is.
type Enricher interface {
	// Enrich returns the document with supplementary context attached.
	Enrich(ctx context.Context, doc domain.Document) (domain.Document, error)
}

// Normaliser turns one raw record into a canonical document.
// Pure per record: malformed input becomes a SkippedRecord with a stated
// reason, never an abort.
type Normaliser interface {
	// Source returns the source this normaliser understands.
	Source() domain.Source

	// Normalise maps a raw record to a document or a skip.
	// Exactly one of the return values is non-nil.
	Normalise(raw domain.RawRecord) (domain.Document, *domain.SkippedRecord)
}
