// Package questions fetches written parliamentary questions from the
// Questions and Statements API.
//
// A date range is covered in two passes, questions tabled in the range
// and questions answered in it, because an answer can land long after
// tabling. The same question can appear in both passes; downstream
// de-duplication by identity key makes that harmless.
package questions

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

// DefaultBaseURL is the public questions API.
const DefaultBaseURL = "https://questions-statements-api.parliament.uk/api"

// DefaultPageSize is the questions page size.
const DefaultPageSize = 50

// Fetch phases, in cursor order.
const (
	phaseTabled   = "tabled"
	phaseAnswered = "answered"
)

// Ensure Connector implements the interface.
var _ driven.UpstreamSource = (*Connector)(nil)

// Connector pages through written questions for a date range.
type Connector struct {
	client   *connectors.Client
	baseURL  string
	pageSize int
}

// NewConnector creates a questions connector. An empty baseURL selects
// the public API; pageSize <= 0 selects the default.
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
	return domain.SourceQuestions
}

// questionsPage is the upstream response envelope. Each result wraps the
// question in a value field alongside HATEOAS links.
type questionsPage struct {
	Results []struct {
		Value json.RawMessage `json:"value"`
	} `json:"results"`
	TotalResults int `json:"totalResults"`
}

// FetchPage returns one page of raw question records. A nil cursor
// starts the tabled pass at skip 0.
func (c *Connector) FetchPage(ctx context.Context, r domain.DateRange, cursor *domain.Cursor) (*domain.RawPage, error) {
	cur := domain.Cursor{Phase: phaseTabled}
	if cursor != nil {
		cur = *cursor
	}

	params := url.Values{}
	params.Set("expandMember", "true")
	params.Set("take", strconv.Itoa(c.pageSize))
	params.Set("skip", strconv.Itoa(cur.Skip))
	switch cur.Phase {
	case phaseTabled:
		params.Set("tabledWhenFrom", r.FromString())
		params.Set("tabledWhenTo", r.ToString())
	case phaseAnswered:
		params.Set("answeredWhenFrom", r.FromString())
		params.Set("answeredWhenTo", r.ToString())
	default:
		return nil, fmt.Errorf("unknown questions phase %q", cur.Phase)
	}

	reqURL := fmt.Sprintf("%s/writtenquestions/questions", c.baseURL)

	var page questionsPage
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

	logger.Debug("Questions %s page skip=%d: %d of %d results",
		cur.Phase, cur.Skip, len(page.Results), page.TotalResults)

	records := make([]domain.RawRecord, 0, len(page.Results))
	for _, item := range page.Results {
		records = append(records, domain.RawRecord{Source: domain.SourceQuestions, Body: item.Value})
	}

	return &domain.RawPage{
		Records: records,
		Next:    nextCursor(cur, len(page.Results), page.TotalResults),
		Total:   page.TotalResults,
	}, nil
}

func nextCursor(cur domain.Cursor, got, total int) *domain.Cursor {
	next := cur.Skip + got
	if got > 0 && next < total {
		return &domain.Cursor{Phase: cur.Phase, Skip: next}
	}
	if cur.Phase == phaseTabled {
		return &domain.Cursor{Phase: phaseAnswered}
	}
	return nil
}
