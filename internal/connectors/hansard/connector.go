// Package hansard fetches debate contributions from the Hansard API.
//
// The API paginates by skip/take within a contribution type; a run walks
// the types in a fixed order (Spoken, Written, Corrections, Petitions)
// so a cursor of (type, skip) can resume an interrupted fetch.
package hansard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/openparl/parlsearch/internal/connectors"
	"github.com/openparl/parlsearch/internal/core/domain"
	"github.com/openparl/parlsearch/internal/core/ports/driven"
	"github.com/openparl/parlsearch/internal/logger"
)

// DefaultBaseURL is the public Hansard API.
const DefaultBaseURL = "https://hansard-api.parliament.uk"

// DefaultPageSize is the contributions page size.
const DefaultPageSize = 100

// contributionTypes are the fetch phases, in cursor order.
var contributionTypes = []string{"Spoken", "Written", "Corrections", "Petitions"}

// Ensure Connector implements the interface.
var _ driven.UpstreamSource = (*Connector)(nil)

// Connector pages through Hansard contributions for a date range.
type Connector struct {
	client   *connectors.Client
	baseURL  string
	pageSize int
}

// NewConnector creates a Hansard connector. An empty baseURL selects the
// public API; pageSize <= 0 selects the default.
func NewConnector(client *connectors.Client, baseURL string, pageSize int) *Connector {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Connector{client: client, baseURL: baseURL, pageSize: pageSize}
}

// Source returns the source identifier.
func (c *Connector) Source() domain.Source {
	return domain.SourceHansard
}

// contributionsPage is the upstream search response envelope.
type contributionsPage struct {
	Results          []json.RawMessage `json:"Results"`
	TotalResultCount int               `json:"TotalResultCount"`
}

// FetchPage returns one page of raw contribution records. A nil cursor
// starts at the first contribution type with skip 0.
func (c *Connector) FetchPage(ctx context.Context, r domain.DateRange, cursor *domain.Cursor) (*domain.RawPage, error) {
	cur := domain.Cursor{Phase: contributionTypes[0]}
	if cursor != nil {
		cur = *cursor
	}
	if !validType(cur.Phase) {
		return nil, fmt.Errorf("unknown contribution type %q", cur.Phase)
	}

	params := url.Values{}
	params.Set("orderBy", "SittingDateAsc")
	params.Set("startDate", r.FromString())
	params.Set("endDate", r.ToString())
	params.Set("take", strconv.Itoa(c.pageSize))
	params.Set("skip", strconv.Itoa(cur.Skip))

	reqURL := fmt.Sprintf("%s/search/contributions/%s.json", c.baseURL, cur.Phase)

	var page contributionsPage
	if err := c.client.GetJSON(ctx, reqURL, params, &page); err != nil {
		var rejected *connectors.RejectedError
		if errors.As(err, &rejected) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &connectors.UnavailableError{Cursor: &cur, Err: err}
	}

	logger.Debug("Hansard %s page skip=%d: %d of %d results",
		cur.Phase, cur.Skip, len(page.Results), page.TotalResultCount)

	records := make([]domain.RawRecord, 0, len(page.Results))
	for _, body := range page.Results {
		records = append(records, domain.RawRecord{Source: domain.SourceHansard, Body: body})
	}

	return &domain.RawPage{
		Records: records,
		Next:    c.nextCursor(cur, len(page.Results), page.TotalResultCount),
		Total:   page.TotalResultCount,
	}, nil
}

// nextCursor advances within the current contribution type, or on to the
// next type once the current one is exhausted.
func (c *Connector) nextCursor(cur domain.Cursor, got, total int) *domain.Cursor {
	next := cur.Skip + got
	if got > 0 && next < total {
		return &domain.Cursor{Phase: cur.Phase, Skip: next}
	}
	for i, t := range contributionTypes {
		if t == cur.Phase && i+1 < len(contributionTypes) {
			return &domain.Cursor{Phase: contributionTypes[i+1]}
		}
	}
	return nil
}

func validType(t string) bool {
	for _, known := range contributionTypes {
		if known == t {
			return true
		}
	}
	return false
}
