package driving

import (
	"context"

	"github.com/openparl/parlsearch/internal/core/domain"
)

// Ingestor drives one ingestion run for a source.
type Ingestor interface {
	// Run resolves the request's date range, pages through the upstream
	// API, normalises, embeds and writes in bounded-memory chunks, and
	// returns the run summary. A partially failed run still returns the
	// summary of everything completed, with Partial set.
	Run(ctx context.Context, req domain.IngestionRequest) (domain.Summary, error)
}
