package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDateRange indicates a date bound could not be parsed or
	// the resolved range has from after to.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidQuery indicates a search request was rejected before execution.
	ErrInvalidQuery = errors.New("invalid query")

	// Upstream API errors.

	// ErrUpstreamRejected indicates the upstream API rejected the request
	// outright (a 4xx other than rate limiting). Not retryable.
	ErrUpstreamRejected = errors.New("upstream rejected request")

	// ErrUpstreamUnavailable indicates the upstream API kept failing after
	// retries. The run summary reports progress up to the cursor reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// Embedding errors.

	// ErrEmbeddingFailed indicates a batch exhausted its embedding retries.
	// Scoped to the failing batch; sibling batches are unaffected.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// Index errors.

	// ErrSchemaMismatch indicates an existing collection has an incompatible
	// schema (wrong vector dimensionality). Requires operator intervention.
	ErrSchemaMismatch = errors.New("collection schema mismatch")

	// ErrIndexWriteFailed indicates a bulk write failed after retries.
	ErrIndexWriteFailed = errors.New("index write failed")

	// ErrSearchUnavailable indicates the search index could not serve a
	// query. Surfaced immediately; callers control retry policy.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrRunInProgress indicates an ingestion run is already active for the
	// same source. Overlapping runs are safe (upserts are idempotent) but a
	// single authoritative run per source keeps summaries meaningful.
	ErrRunInProgress = errors.New("ingestion run in progress")
)
