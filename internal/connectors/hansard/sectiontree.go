package hansard

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/openparl/parlsearch/internal/connectors"
	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/logger"
)

// Ensure ParentsEnricher implements the interface.
var _ driven.Enricher = (*ParentsEnricher)(nil)

// sectionItem is one node of a day's debate section tree.
type sectionItem struct {
	ID         int    `json:"Id"`
	Title      string `json:"Title"`
	ParentID   *int   `json:"ParentId"`
	ExternalID string `json:"ExternalId"`
}

// sectionTree is the sectiontrees.json response envelope.
type sectionTree struct {
	SectionTreeItems []sectionItem `json:"SectionTreeItems"`
}

// ParentsEnricher attaches the debate parent hierarchy to contributions.
// Section trees are fetched once per (date, house) and cached for the
// run, since every contribution from the same sitting shares them.
type ParentsEnricher struct {
	client  *connectors.Client
	baseURL string

	mu    sync.Mutex
	trees map[string]map[string]sectionItem
	byID  map[string]map[int]sectionItem
}

// NewParentsEnricher creates an enricher backed by the same rate-limited
// client as the connector.
func NewParentsEnricher(client *connectors.Client, baseURL string) *ParentsEnricher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ParentsEnricher{
		client:  client,
		baseURL: baseURL,
		trees:   make(map[string]map[string]sectionItem),
		byID:    make(map[string]map[int]sectionItem),
	}
}

// Enrich fills in DebateParents for Hansard contributions. Failures are
// logged and leave the document unchanged; missing hierarchy never fails
// an ingestion run. Non-contribution documents pass through untouched.
func (e *ParentsEnricher) Enrich(ctx context.Context, doc domain.Document) (domain.Document, error) {
	contribution, ok := doc.(*domain.Contribution)
	if !ok || contribution.DebateSectionExtID == "" {
		return doc, nil
	}

	date := contribution.SittingDate.Format("2006-01-02")
	byExt, byID, err := e.sectionTrees(ctx, date, contribution.House)
	if err != nil {
		logger.Warn("Failed to load section trees for %s %s: %v", contribution.House, date, err)
		return doc, nil
	}

	parents := walkParents(byExt, byID, contribution.DebateSectionExtID)
	if len(parents) == 0 {
		return doc, nil
	}

	enriched := *contribution
	enriched.DebateParents = parents
	return &enriched, nil
}

// walkParents follows ParentId links from the contribution's section to
// the root. External ids key the first lookup because they are more
// stable than section ids.
func walkParents(byExt map[string]sectionItem, byID map[int]sectionItem, extID string) []domain.DebateParent {
	var parents []domain.DebateParent

	item, ok := byExt[extID]
	for ok {
		parents = append(parents, domain.DebateParent{
			ID:         item.ID,
			Title:      item.Title,
			ParentID:   item.ParentID,
			ExternalID: item.ExternalID,
		})
		if item.ParentID == nil {
			break
		}
		item, ok = byID[*item.ParentID]
	}

	return parents
}

// sectionTrees loads and caches the debate hierarchy for a sitting day.
func (e *ParentsEnricher) sectionTrees(ctx context.Context, date, house string) (map[string]sectionItem, map[int]sectionItem, error) {
	key := date + "|" + house

	e.mu.Lock()
	byExt, cached := e.trees[key]
	byID := e.byID[key]
	e.mu.Unlock()
	if cached {
		return byExt, byID, nil
	}

	params := url.Values{}
	params.Set("house", house)
	params.Set("date", date)

	var sections []int
	sectionsURL := fmt.Sprintf("%s/overview/sectionsforday.json", e.baseURL)
	if err := e.client.GetJSON(ctx, sectionsURL, params, &sections); err != nil {
		return nil, nil, fmt.Errorf("sections for day: %w", err)
	}

	byExt = make(map[string]sectionItem)
	byID = make(map[int]sectionItem)
	for _, section := range sections {
		treeParams := url.Values{}
		treeParams.Set("section", fmt.Sprint(section))
		treeParams.Set("date", date)
		treeParams.Set("house", house)

		var trees []sectionTree
		treesURL := fmt.Sprintf("%s/overview/sectiontrees.json", e.baseURL)
		if err := e.client.GetJSON(ctx, treesURL, treeParams, &trees); err != nil {
			return nil, nil, fmt.Errorf("section trees: %w", err)
		}
		for _, tree := range trees {
			for _, item := range tree.SectionTreeItems {
				byExt[item.ExternalID] = item
				byID[item.ID] = item
			}
		}
	}

	e.mu.Lock()
	e.trees[key] = byExt
	e.byID[key] = byID
	e.mu.Unlock()

	return byExt, byID, nil
}
