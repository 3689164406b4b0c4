package driving

import (
	"context"

	"github.com/openparl/parlsearch/internal/core/domain"
)

// SearchService plans and executes hybrid queries over the index.
type SearchService interface {
	// Search validates the request, plans a hybrid query and executes
	// it, returning typed scored results. Requests above the limit
	// ceiling fail wrapping domain.ErrInvalidQuery.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)

	// SearchDebates searches contributions and groups the hits into
	// unique debates ranked by their best contribution. The request's
	// Source must be empty or hansard.
	SearchDebates(ctx context.Context, req domain.SearchRequest) ([]domain.DebateResult, error)
}
