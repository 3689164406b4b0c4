// Package memory provides an in-memory search index. It backs tests and
// local experimentation; scoring is a simple token-overlap plus cosine
// blend rather than a real relevance model.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// storedDoc is one indexed document.
type storedDoc struct {
	fields      map[string]any
	raw         json.RawMessage
	vector      []float32
	contentHash string
}

// collection is one named document set.
type collection struct {
	dims int
	docs map[string]storedDoc
}

// Index is an in-memory search index.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{collections: make(map[string]*collection)}
}

// EnsureCollection creates the collection or validates its dims.
func (x *Index) EnsureCollection(_ context.Context, name string, dims int) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if col, ok := x.collections[name]; ok {
		if col.dims != dims {
			return fmt.Errorf("collection %s has %d-dim vectors, expected %d: %w",
				name, col.dims, dims, domain.ErrSchemaMismatch)
		}
		return nil
	}
	x.collections[name] = &collection{dims: dims, docs: make(map[string]storedDoc)}
	return nil
}

// DeleteCollection drops the collection. A missing collection is not an
// error.
func (x *Index) DeleteCollection(_ context.Context, name string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.collections, name)
	return nil
}

// BulkUpsert writes documents keyed by identity, replacing existing keys.
func (x *Index) BulkUpsert(_ context.Context, name string, docs []domain.EmbeddedDocument) (*driven.BulkResult, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	col, ok := x.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist: %w", name, domain.ErrIndexWriteFailed)
	}

	result := &driven.BulkResult{}
	for _, doc := range docs {
		id := doc.Document.DocumentURI()

		raw, err := json.Marshal(doc.Document)
		if err != nil {
			result.Failed = append(result.Failed, driven.ItemFailure{ID: id, Reason: err.Error()})
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			result.Failed = append(result.Failed, driven.ItemFailure{ID: id, Reason: err.Error()})
			continue
		}
		fields["text"] = doc.Document.EmbeddableText()
		fields["content_hash"] = doc.ContentHash
		fields["uri"] = id
		raw, err = json.Marshal(fields)
		if err != nil {
			result.Failed = append(result.Failed, driven.ItemFailure{ID: id, Reason: err.Error()})
			continue
		}

		col.docs[id] = storedDoc{
			fields:      fields,
			raw:         raw,
			vector:      doc.Vector,
			contentHash: doc.ContentHash,
		}
		result.Written++
	}
	return result, nil
}

// StoredHashes returns the content hashes for the given identity keys.
func (x *Index) StoredHashes(_ context.Context, name string, ids []string) (map[string]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	hashes := make(map[string]string)
	col, ok := x.collections[name]
	if !ok {
		return hashes, nil
	}
	for _, id := range ids {
		if doc, ok := col.docs[id]; ok {
			hashes[id] = doc.contentHash
		}
	}
	return hashes, nil
}

// Count returns the number of documents in a collection.
func (x *Index) Count(name string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if col, ok := x.collections[name]; ok {
		return len(col.docs)
	}
	return 0
}

// scoredDoc pairs a hit with its tie-break value.
type scoredDoc struct {
	hit      domain.Hit
	tieBreak string
}

// Search executes a planned query over the collection.
func (x *Index) Search(_ context.Context, plan domain.QueryPlan) ([]domain.Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	col, ok := x.collections[plan.Collection]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist: %w", plan.Collection, domain.ErrSearchUnavailable)
	}

	var scored []scoredDoc
	for id, doc := range col.docs {
		if !matchesFilters(doc.fields, plan.Filters) {
			continue
		}

		score := 1.0
		if plan.Text != "" {
			text, _ := doc.fields[plan.TextField].(string)
			lexical := tokenOverlap(plan.Text, text)
			semantic := 0.0
			if len(plan.Vector) > 0 && len(doc.vector) == len(plan.Vector) {
				semantic = cosine(plan.Vector, doc.vector)
			}
			score = lexical + semantic
			if score < plan.MinScore {
				continue
			}
		}

		scored = append(scored, scoredDoc{
			hit:      domain.Hit{ID: id, Score: score, Fields: doc.raw},
			tieBreak: tieBreakValue(doc.fields, plan.TieBreakField),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].hit.Score != scored[j].hit.Score {
			return scored[i].hit.Score > scored[j].hit.Score
		}
		if scored[i].tieBreak != scored[j].tieBreak {
			return scored[i].tieBreak < scored[j].tieBreak
		}
		return scored[i].hit.ID < scored[j].hit.ID
	})

	start := plan.Offset
	if start > len(scored) {
		start = len(scored)
	}
	end := start + plan.Limit
	if plan.Limit <= 0 || end > len(scored) {
		end = len(scored)
	}

	hits := make([]domain.Hit, 0, end-start)
	for _, s := range scored[start:end] {
		hits = append(hits, s.hit)
	}
	return hits, nil
}

// lookup resolves a possibly dotted field path against the decoded
// document.
func lookup(fields map[string]any, path string) (any, bool) {
	var value any = fields
	for _, part := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// matchesFilters applies every filter clause to a document.
func matchesFilters(fields map[string]any, filters []domain.Filter) bool {
	for _, f := range filters {
		value, present := lookup(fields, f.Field)
		switch f.Kind {
		case domain.FilterTerm:
			if !present || !termEqual(value, f.Value) {
				return false
			}
		case domain.FilterRange:
			s, _ := value.(string)
			if s == "" {
				return false
			}
			date := s
			if len(date) > 10 {
				date = date[:10]
			}
			if f.From != "" && date < f.From {
				return false
			}
			if f.To != "" && date > f.To {
				return false
			}
		case domain.FilterExists:
			if !present || value == nil {
				return false
			}
		}
	}
	return true
}

// termEqual compares a stored field to a filter value, tolerating the
// float64 shape encoding/json gives numbers.
func termEqual(stored, want any) bool {
	if n, ok := stored.(float64); ok {
		switch w := want.(type) {
		case int:
			return n == float64(w)
		case float64:
			return n == w
		}
	}
	return fmt.Sprintf("%v", stored) == fmt.Sprintf("%v", want)
}

// tieBreakValue extracts the sortable string form of the tie-break field.
func tieBreakValue(fields map[string]any, field string) string {
	if field == "" {
		return ""
	}
	if v, ok := lookup(fields, field); ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// tokenOverlap scores how many query tokens appear in the text,
// normalised to [0,1].
func tokenOverlap(query, text string) float64 {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}
