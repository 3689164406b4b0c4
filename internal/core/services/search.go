package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/core/ports/driving"
	"github.com/openparl/parlsearch/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// DefaultMinScore drops weak matches from hybrid queries. Filter-only
// queries are unaffected.
const DefaultMinScore = 0.5

// sourceFields names the per-source index fields a query plan targets.
type sourceFields struct {
	collection string
	dateField  string
	houseField string
	tieBreak   string
}

// Searcher plans and executes hybrid queries over the index.
type Searcher struct {
	index    driven.SearchIndex
	embedder driven.EmbeddingService
	fields   map[domain.Source]sourceFields
	minScore float64
}

// NewSearcher creates a search service over the given index and
// embedding provider.
func NewSearcher(index driven.SearchIndex, embedder driven.EmbeddingService, questionsCollection, hansardCollection string, minScore float64) *Searcher {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Searcher{
		index:    index,
		embedder: embedder,
		fields: map[domain.Source]sourceFields{
			domain.SourceQuestions: {
				collection: questionsCollection,
				dateField:  "dateTabled",
				houseField: "house",
				tieBreak:   "dateTabled",
			},
			domain.SourceHansard: {
				collection: hansardCollection,
				dateField:  "SittingDate",
				houseField: "House",
				tieBreak:   "SittingDate",
			},
		},
		minScore: minScore,
	}
}

// Search validates, plans and executes one request.
func (s *Searcher) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	plan, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Search(ctx, plan)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		result, err := decodeHit(req.Source, hit)
		if err != nil {
			logger.Debug("Dropping undecodable hit %s: %v", hit.ID, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// debateWindowFactor widens a debates query to fetch enough contribution
// hits that grouping by debate still fills the requested page.
const debateWindowFactor = 5

// SearchDebates searches contributions and groups the hits into unique
// debates, each ranked by its best-scoring contribution.
func (s *Searcher) SearchDebates(ctx context.Context, req domain.SearchRequest) ([]domain.DebateResult, error) {
	if req.Source != "" && req.Source != domain.SourceHansard {
		return nil, fmt.Errorf("debates search only covers hansard, not %q: %w", req.Source, domain.ErrInvalidQuery)
	}
	req.Source = domain.SourceHansard

	plan, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	// Pagination happens after grouping: hits for one debate collapse
	// into one result, so the plan over-fetches from the start.
	limit, offset := plan.Limit, plan.Offset
	plan.Limit = (limit + offset) * debateWindowFactor
	plan.Offset = 0

	hits, err := s.index.Search(ctx, plan)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var debates []domain.DebateResult
	for _, hit := range hits {
		var c domain.Contribution
		if err := json.Unmarshal(hit.Fields, &c); err != nil {
			logger.Debug("Dropping undecodable hit %s: %v", hit.ID, err)
			continue
		}
		if idx, ok := seen[c.DebateSectionExtID]; ok {
			debates[idx].Contributions++
			continue
		}
		// Hits arrive ranked, so the first contribution of a debate
		// carries its best score.
		seen[c.DebateSectionExtID] = len(debates)
		debates = append(debates, domain.DebateResult{
			DebateSectionExtID: c.DebateSectionExtID,
			Title:              c.DebateSection,
			House:              c.House,
			SittingDate:        c.SittingDate,
			Score:              hit.Score,
			Contributions:      1,
			URL:                c.DebateURL(),
		})
	}

	if offset > len(debates) {
		offset = len(debates)
	}
	end := offset + limit
	if end > len(debates) {
		end = len(debates)
	}
	return debates[offset:end], nil
}

// Plan validates a request and builds its query plan. Exported for the
// executor and for tests; callers normally go through Search.
func (s *Searcher) Plan(ctx context.Context, req domain.SearchRequest) (domain.QueryPlan, error) {
	fields, ok := s.fields[req.Source]
	if !ok {
		return domain.QueryPlan{}, fmt.Errorf("unknown source %q: %w", req.Source, domain.ErrInvalidQuery)
	}

	limit := req.Limit
	switch {
	case limit == 0:
		limit = domain.DefaultSearchLimit
	case limit < 0 || limit > domain.MaxSearchLimit:
		return domain.QueryPlan{}, fmt.Errorf("limit %d outside 1..%d: %w", req.Limit, domain.MaxSearchLimit, domain.ErrInvalidQuery)
	}
	if req.Offset < 0 {
		return domain.QueryPlan{}, fmt.Errorf("negative offset: %w", domain.ErrInvalidQuery)
	}

	filters, err := s.planFilters(req, fields)
	if err != nil {
		return domain.QueryPlan{}, err
	}

	if req.Text == "" && len(filters) == 0 {
		return domain.QueryPlan{}, fmt.Errorf("request has neither text nor filters: %w", domain.ErrInvalidQuery)
	}

	plan := domain.QueryPlan{
		Collection:    fields.collection,
		TextField:     "text",
		Filters:       filters,
		Limit:         limit,
		Offset:        req.Offset,
		TieBreakField: fields.tieBreak,
	}

	if req.Text != "" {
		vector, err := s.embedder.Embed(ctx, req.Text)
		if err != nil {
			return domain.QueryPlan{}, fmt.Errorf("embedding query: %w: %v", domain.ErrEmbeddingFailed, err)
		}
		plan.Text = req.Text
		plan.Vector = vector
		plan.MinScore = s.minScore
	}

	return plan, nil
}

// planFilters maps request filters onto per-source index fields.
func (s *Searcher) planFilters(req domain.SearchRequest, fields sourceFields) ([]domain.Filter, error) {
	var filters []domain.Filter

	if req.DateFrom != "" || req.DateTo != "" {
		if err := validDateBounds(req.DateFrom, req.DateTo); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
		}
		filters = append(filters, domain.Filter{
			Kind:  domain.FilterRange,
			Field: fields.dateField,
			From:  req.DateFrom,
			To:    req.DateTo,
		})
	}

	if req.House != "" {
		filters = append(filters, domain.Filter{Kind: domain.FilterTerm, Field: fields.houseField, Value: req.House})
	}

	switch req.Source {
	case domain.SourceQuestions:
		if req.Party != "" {
			filters = append(filters, domain.Filter{Kind: domain.FilterTerm, Field: "askingMember.party", Value: req.Party})
		}
		if req.MemberName != "" {
			filters = append(filters, domain.Filter{Kind: domain.FilterTerm, Field: "askingMember.name", Value: req.MemberName})
		}
		if req.MemberID != 0 {
			filters = append(filters, domain.Filter{Kind: domain.FilterTerm, Field: "askingMemberId", Value: req.MemberID})
		}
		if req.DebateID != "" {
			return nil, fmt.Errorf("debate filter does not apply to questions: %w", domain.ErrInvalidQuery)
		}
	case domain.SourceHansard:
		if req.Party != "" {
			return nil, fmt.Errorf("party filter does not apply to contributions: %w", domain.ErrInvalidQuery)
		}
		if req.MemberName != "" {
			filters = append(filters, domain.Filter{Kind: domain.FilterTerm, Field: "MemberName", Value: req.MemberName})
		}
		if req.MemberID != 0 {
			filters = append(filters, domain.Filter{Kind: domain.FilterTerm, Field: "MemberId", Value: req.MemberID})
		}
		if req.DebateID != "" {
			filters = append(filters, domain.Filter{Kind: domain.FilterTerm, Field: "DebateSectionExtId", Value: req.DebateID})
		}
	}

	return filters, nil
}

// decodeHit maps a raw hit into the typed result for its source.
func decodeHit(source domain.Source, hit domain.Hit) (domain.SearchResult, error) {
	result := domain.SearchResult{Score: hit.Score}
	switch source {
	case domain.SourceQuestions:
		var q domain.ParliamentaryQuestion
		if err := json.Unmarshal(hit.Fields, &q); err != nil {
			return domain.SearchResult{}, err
		}
		result.Question = &q
	case domain.SourceHansard:
		var c domain.Contribution
		if err := json.Unmarshal(hit.Fields, &c); err != nil {
			return domain.SearchResult{}, err
		}
		result.Contribution = &c
	}
	return result, nil
}

// validDateBounds checks the optional date filter bounds. Bounds are
// absolute dates; either may be empty for an open interval.
func validDateBounds(from, to string) error {
	if from != "" {
		if _, err := time.Parse("2006-01-02", from); err != nil {
			return fmt.Errorf("from date %q: want YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if _, err := time.Parse("2006-01-02", to); err != nil {
			return fmt.Errorf("to date %q: want YYYY-MM-DD", to)
		}
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("from %s is after to %s", from, to)
	}
	return nil
}
