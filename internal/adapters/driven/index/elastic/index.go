// Package elastic implements the search index boundary against an
// Elasticsearch cluster over its JSON HTTP API.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:9200"
	DefaultTimeout = 30 * time.Second

	maxRetries = 3
	retryDelay = 1 * time.Second

	// knnCandidateFactor sets num_candidates as a multiple of the
	// requested window.
	knnCandidateFactor = 10
)

// Config holds configuration for the Elasticsearch index.
type Config struct {
	// BaseURL is the cluster endpoint (default: http://localhost:9200).
	BaseURL string

	// APIKey authenticates requests when non-empty.
	APIKey string

	// Username and Password enable basic auth when APIKey is empty.
	Username string
	Password string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Index talks to one Elasticsearch cluster.
type Index struct {
	client  *http.Client
	baseURL string
	apiKey  string
	user    string
	pass    string
}

// NewIndex creates an Elasticsearch-backed search index.
func NewIndex(cfg Config) *Index {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		user:    cfg.Username,
		pass:    cfg.Password,
	}
}

// mapping builds the index mapping. Both collections share one shape:
// the principal text plus its dense vector and content hash, keyword
// mappings for the filterable fields, and dynamic mapping for the rest
// of the record. Dates arrive as RFC 3339 strings.
func mapping(dims int) map[string]any {
	keyword := map[string]any{"type": "keyword"}
	date := map[string]any{"type": "date"}
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"text": map[string]any{"type": "text"},
				"uri":  keyword,
				"embedding": map[string]any{
					"type":       "dense_vector",
					"dims":       dims,
					"index":      true,
					"similarity": "cosine",
				},
				"content_hash": keyword,

				// Written questions
				"uin":          keyword,
				"house":        keyword,
				"dateTabled":   date,
				"dateAnswered": date,
				"askingMember": map[string]any{
					"properties": map[string]any{
						"name":  keyword,
						"party": keyword,
					},
				},

				// Hansard contributions
				"House":              keyword,
				"MemberName":         keyword,
				"SittingDate":        date,
				"ContributionExtId":  keyword,
				"DebateSectionExtId": keyword,
			},
		},
	}
}

// EnsureCollection creates the collection if absent and validates the
// vector dimensionality of an existing one.
func (x *Index) EnsureCollection(ctx context.Context, collection string, dims int) error {
	status, _, err := x.do(ctx, http.MethodHead, "/"+collection, nil)
	if err != nil {
		return fmt.Errorf("checking index %s: %w: %v", collection, domain.ErrIndexWriteFailed, err)
	}

	if status == http.StatusNotFound {
		body, err := json.Marshal(mapping(dims))
		if err != nil {
			return fmt.Errorf("marshal mapping: %w", err)
		}
		status, respBody, err := x.do(ctx, http.MethodPut, "/"+collection, body)
		if err != nil {
			return fmt.Errorf("creating index %s: %w: %v", collection, domain.ErrIndexWriteFailed, err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("creating index %s (status %d): %w: %s", collection, status, domain.ErrIndexWriteFailed, respBody)
		}
		logger.Info("Created index %s (%d dims)", collection, dims)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("checking index %s (status %d): %w", collection, status, domain.ErrIndexWriteFailed)
	}

	return x.validateDims(ctx, collection, dims)
}

// validateDims compares the stored embedding mapping against the
// expected dimensionality.
func (x *Index) validateDims(ctx context.Context, collection string, dims int) error {
	status, body, err := x.do(ctx, http.MethodGet, "/"+collection+"/_mapping", nil)
	if err != nil || status != http.StatusOK {
		return fmt.Errorf("reading mapping for %s: %w", collection, domain.ErrIndexWriteFailed)
	}

	var resp map[string]struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
				Dims int    `json:"dims"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode mapping for %s: %w", collection, err)
	}

	for _, idx := range resp {
		embedding, ok := idx.Mappings.Properties["embedding"]
		if !ok {
			return fmt.Errorf("index %s has no embedding field: %w", collection, domain.ErrSchemaMismatch)
		}
		if embedding.Dims != dims {
			return fmt.Errorf("index %s has %d-dim vectors, expected %d: %w",
				collection, embedding.Dims, dims, domain.ErrSchemaMismatch)
		}
	}
	return nil
}

// DeleteCollection drops the index. A missing index is not an error.
func (x *Index) DeleteCollection(ctx context.Context, collection string) error {
	status, respBody, err := x.do(ctx, http.MethodDelete, "/"+collection, nil)
	if err != nil {
		return fmt.Errorf("deleting index %s: %w: %v", collection, domain.ErrIndexWriteFailed, err)
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return fmt.Errorf("deleting index %s (status %d): %w: %s", collection, status, domain.ErrIndexWriteFailed, respBody)
	}
	logger.Info("Deleted index %s", collection)
	return nil
}

// bulkItemResult is one entry of a _bulk response.
type bulkItemResult struct {
	Index struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"index"`
}

// BulkUpsert writes embedded documents keyed by their identity. Item
// failures are isolated; transport failures are retried before
// surfacing.
func (x *Index) BulkUpsert(ctx context.Context, collection string, docs []domain.EmbeddedDocument) (*driven.BulkResult, error) {
	if len(docs) == 0 {
		return &driven.BulkResult{}, nil
	}

	body, err := bulkBody(collection, docs)
	if err != nil {
		return nil, err
	}

	var (
		status   int
		respBody []byte
	)
	for attempt := 1; ; attempt++ {
		status, respBody, err = x.do(ctx, http.MethodPost, "/_bulk", body)
		if err == nil && status == http.StatusOK {
			break
		}
		if attempt >= maxRetries {
			if err != nil {
				return nil, fmt.Errorf("bulk upsert to %s: %w: %v", collection, domain.ErrIndexWriteFailed, err)
			}
			return nil, fmt.Errorf("bulk upsert to %s (status %d): %w: %s", collection, status, domain.ErrIndexWriteFailed, respBody)
		}

		delay := retryDelay << (attempt - 1)
		logger.Debug("Bulk upsert attempt %d failed, retrying in %v", attempt, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	var resp struct {
		Errors bool             `json:"errors"`
		Items  []bulkItemResult `json:"items"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	result := &driven.BulkResult{}
	for _, item := range resp.Items {
		if item.Index.Error != nil {
			result.Failed = append(result.Failed, driven.ItemFailure{
				ID:     item.Index.ID,
				Reason: fmt.Sprintf("%s: %s", item.Index.Error.Type, item.Index.Error.Reason),
			})
			continue
		}
		result.Written++
	}
	return result, nil
}

// bulkBody renders the NDJSON payload for one bulk request. The source
// line is the document's own JSON with the vector and content hash
// spliced in.
func bulkBody(collection string, docs []domain.EmbeddedDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": collection,
				"_id":    doc.Document.DocumentURI(),
			},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}

		fields, err := json.Marshal(doc.Document)
		if err != nil {
			return nil, fmt.Errorf("marshal document %s: %w", doc.Document.DocumentURI(), err)
		}
		var source map[string]any
		if err := json.Unmarshal(fields, &source); err != nil {
			return nil, fmt.Errorf("reshape document %s: %w", doc.Document.DocumentURI(), err)
		}
		source["text"] = doc.Document.EmbeddableText()
		source["embedding"] = doc.Vector
		source["content_hash"] = doc.ContentHash
		// The identity key is mirrored into the source so it can serve
		// as a sortable tie-break field; _id itself is not sortable.
		source["uri"] = doc.Document.DocumentURI()
		if err := enc.Encode(source); err != nil {
			return nil, fmt.Errorf("encode bulk source: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// StoredHashes returns the content hashes stored for the given identity
// keys. Missing documents are simply absent from the map.
func (x *Index) StoredHashes(ctx context.Context, collection string, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	body, err := json.Marshal(map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("marshal mget request: %w", err)
	}

	status, respBody, err := x.do(ctx, http.MethodPost, "/"+collection+"/_mget?_source=content_hash", body)
	if err != nil {
		return nil, fmt.Errorf("fetching stored hashes from %s: %w: %v", collection, domain.ErrIndexWriteFailed, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetching stored hashes from %s (status %d): %w", collection, status, domain.ErrIndexWriteFailed)
	}

	var resp struct {
		Docs []struct {
			ID     string `json:"_id"`
			Found  bool   `json:"found"`
			Source struct {
				ContentHash string `json:"content_hash"`
			} `json:"_source"`
		} `json:"docs"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode mget response: %w", err)
	}

	hashes := make(map[string]string, len(resp.Docs))
	for _, doc := range resp.Docs {
		if doc.Found && doc.Source.ContentHash != "" {
			hashes[doc.ID] = doc.Source.ContentHash
		}
	}
	return hashes, nil
}

// Search executes a planned hybrid query.
func (x *Index) Search(ctx context.Context, plan domain.QueryPlan) ([]domain.Hit, error) {
	body, err := json.Marshal(searchBody(plan))
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	status, respBody, err := x.do(ctx, http.MethodPost, "/"+plan.Collection+"/_search", body)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w: %v", plan.Collection, domain.ErrSearchUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("searching %s (status %d): %w: %s", plan.Collection, status, domain.ErrSearchUnavailable, respBody)
	}

	var resp struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]domain.Hit, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		hits = append(hits, domain.Hit{ID: h.ID, Score: h.Score, Fields: h.Source})
	}
	return hits, nil
}

// searchBody renders a query plan as an Elasticsearch request. Filters
// always apply; when the plan carries text, a match clause and a kNN
// clause contribute combined relevance.
func searchBody(plan domain.QueryPlan) map[string]any {
	filters := make([]map[string]any, 0, len(plan.Filters))
	for _, f := range plan.Filters {
		switch f.Kind {
		case domain.FilterTerm:
			filters = append(filters, map[string]any{
				"term": map[string]any{f.Field: f.Value},
			})
		case domain.FilterRange:
			bounds := map[string]any{"format": "yyyy-MM-dd"}
			if f.From != "" {
				bounds["gte"] = f.From
			}
			if f.To != "" {
				bounds["lte"] = f.To
			}
			filters = append(filters, map[string]any{
				"range": map[string]any{f.Field: bounds},
			})
		case domain.FilterExists:
			filters = append(filters, map[string]any{
				"exists": map[string]any{"field": f.Field},
			})
		}
	}

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	window := plan.Limit + plan.Offset

	body := map[string]any{
		"from":             plan.Offset,
		"size":             plan.Limit,
		"_source_excludes": []string{"embedding"},
	}

	if plan.Text != "" {
		boolQuery["must"] = []map[string]any{
			{"match": map[string]any{plan.TextField: plan.Text}},
		}
		body["knn"] = map[string]any{
			"field":          "embedding",
			"query_vector":   plan.Vector,
			"k":              window,
			"num_candidates": window * knnCandidateFactor,
			"filter":         filters,
		}
		if plan.MinScore > 0 {
			body["min_score"] = plan.MinScore
		}
	} else if len(filters) == 0 {
		boolQuery["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}

	body["query"] = map[string]any{"bool": boolQuery}

	sort := []any{map[string]any{"_score": map[string]any{"order": "desc"}}}
	if plan.TieBreakField != "" {
		sort = append(sort, map[string]any{plan.TieBreakField: map[string]any{"order": "asc"}})
	}
	// Identity key last, so equal score and tie-break values still order
	// deterministically across pages.
	sort = append(sort, map[string]any{"uri": map[string]any{"order": "asc"}})
	body["sort"] = sort

	return body
}

// do executes one request against the cluster and returns the status
// and body. HEAD responses have no body.
func (x *Index) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		contentType := "application/json"
		if strings.HasPrefix(path, "/_bulk") {
			// The bulk API takes newline-delimited JSON
			contentType = "application/x-ndjson"
		}
		req.Header.Set("Content-Type", contentType)
	}
	switch {
	case x.apiKey != "":
		req.Header.Set("Authorization", "ApiKey "+x.apiKey)
	case x.user != "":
		req.SetBasicAuth(x.user, x.pass)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}
