package domain

import (
	"encoding/json"
	"time"
)

// MaxSearchLimit is the ceiling on results a single request may ask for.
// Requests above it are rejected with ErrInvalidQuery to bound index load.
const MaxSearchLimit = 100

// DefaultSearchLimit applies when a request leaves Limit unset.
const DefaultSearchLimit = 10

// SearchRequest is a structured search over one collection.
type SearchRequest struct {
	// Source selects the collection to search.
	Source Source

	// Text is the free-text query. When empty the plan is filter-only
	// and no vector clause is generated.
	Text string

	// DateFrom and DateTo bound the document date field (YYYY-MM-DD),
	// either may be empty.
	DateFrom string
	DateTo   string

	// House filters by chamber ("Commons" or "Lords").
	House string

	// Party filters questions by the asking member's party.
	Party string

	// MemberName filters by member name.
	MemberName string

	// MemberID filters by member id.
	MemberID int

	// DebateID filters contributions to one debate.
	DebateID string

	// Limit and Offset paginate results.
	Limit  int
	Offset int
}

// FilterKind distinguishes filter clause types.
type FilterKind string

const (
	// FilterTerm is an exact match on a keyword or numeric field.
	FilterTerm FilterKind = "term"

	// FilterRange is an inclusive range on a date field.
	FilterRange FilterKind = "range"

	// FilterExists requires the field to be present and non-null.
	FilterExists FilterKind = "exists"
)

// Filter is one clause of a query plan's filter set.
type Filter struct {
	Kind  FilterKind
	Field string

	// Value applies to term filters.
	Value any

	// From and To apply to range filters, either may be empty.
	From string
	To   string
}

// QueryPlan is a planned hybrid query against one collection: filter
// clauses always apply; the lexical and vector clauses only when free
// text was present.
type QueryPlan struct {
	// Collection is the target index collection.
	Collection string

	// Text is the lexical clause over the principal text field, empty
	// for filter-only plans.
	Text string

	// TextField is the indexed field the lexical and vector clauses
	// target.
	TextField string

	// Vector is the query embedding, nil for filter-only plans.
	Vector []float32

	// Filters are the exact-match and range clauses.
	Filters []Filter

	// MinScore drops weak matches when a text clause is present.
	MinScore float64

	// Limit and Offset paginate.
	Limit  int
	Offset int

	// TieBreakField orders equal-score hits deterministically.
	TieBreakField string
}

// Hit is one raw scored hit from the index.
type Hit struct {
	// ID is the document identity key.
	ID string

	// Score is the index's combined relevance score.
	Score float64

	// Fields is the stored document payload.
	Fields json.RawMessage
}

// SearchResult is a typed, scored document mapped back from a hit.
// Exactly one of Question and Contribution is set, matching the searched
// collection.
type SearchResult struct {
	Score        float64                `json:"score"`
	Question     *ParliamentaryQuestion `json:"question,omitempty"`
	Contribution *Contribution          `json:"contribution,omitempty"`
}

// DebateResult is one debate discovered through its contributions:
// contributions are searched individually and then grouped by debate, so
// the score is the best contribution score and Contributions counts the
// matches, not the debate's full size.
type DebateResult struct {
	DebateSectionExtID string    `json:"debateSectionExtId"`
	Title              string    `json:"title"`
	House              string    `json:"house"`
	SittingDate        time.Time `json:"sittingDate"`
	Score              float64   `json:"score"`
	Contributions      int       `json:"contributions"`
	URL                string    `json:"url"`
}

// URI returns the identity key of the matched document.
func (r SearchResult) URI() string {
	switch {
	case r.Question != nil:
		return r.Question.DocumentURI()
	case r.Contribution != nil:
		return r.Contribution.DocumentURI()
	default:
		return ""
	}
}
