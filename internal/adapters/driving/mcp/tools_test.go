package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openparl/parlsearch/internal/core/domain"
)

func newTestServer(t *testing.T, search *mockSearchService, ingest *mockIngestor) *Server {
	t.Helper()
	if search == nil {
		search = &mockSearchService{}
	}
	if ingest == nil {
		ingest = &mockIngestor{}
	}
	server, err := NewServer(&Ports{Search: search, Ingest: ingest})
	require.NoError(t, err)
	return server
}

func TestServer_handleQuestionsSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns mapped question results", func(t *testing.T) {
		answered := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{
				{
					Score: 0.91,
					Question: &domain.ParliamentaryQuestion{
						ID:                1200021,
						UIN:               "4567",
						House:             "Commons",
						Heading:           "NHS Dentistry",
						AskingMember:      &domain.Member{ID: 10, Name: "Jim Example", Party: "Labour"},
						AnsweringBodyName: "Department of Health and Social Care",
						DateTabled:        time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
						DateAnswered:      &answered,
						QuestionText:      "What steps are being taken.",
						AnswerText:        "Several steps.",
					},
				},
			},
		}
		server := newTestServer(t, mockSearch, nil)

		input := QuestionsSearchInput{Query: "dentistry", House: "Commons", Limit: 5}
		_, output, err := server.handleQuestionsSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)

		q := output.Results[0]
		assert.Equal(t, "pq_1200021", q.URI)
		assert.Equal(t, 0.91, q.Score)
		assert.Equal(t, "4567", q.UIN)
		assert.Equal(t, "Jim Example", q.AskingMember)
		assert.Equal(t, "Labour", q.Party)
		assert.Equal(t, "2024-06-10", q.DateTabled)
		assert.Equal(t, "2024-06-14", q.DateAnswered)

		assert.Equal(t, domain.SourceQuestions, mockSearch.lastReq.Source)
		assert.Equal(t, "dentistry", mockSearch.lastReq.Text)
		assert.Equal(t, "Commons", mockSearch.lastReq.House)
		assert.Equal(t, 5, mockSearch.lastReq.Limit)
	})

	t.Run("unanswered question leaves the answer fields empty", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{
				{
					Score: 0.5,
					Question: &domain.ParliamentaryQuestion{
						ID:         7,
						DateTabled: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
					},
				},
			},
		}
		server := newTestServer(t, mockSearch, nil)

		_, output, err := server.handleQuestionsSearch(ctx, nil, QuestionsSearchInput{Query: "x"})

		require.NoError(t, err)
		require.Len(t, output.Results, 1)
		assert.Empty(t, output.Results[0].DateAnswered)
		assert.Empty(t, output.Results[0].AnswerText)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{err: errors.New("search failed")}
		server := newTestServer(t, mockSearch, nil)

		_, _, err := server.handleQuestionsSearch(ctx, nil, QuestionsSearchInput{Query: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleContributionsSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns mapped contribution results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{
				{
					Score: 0.8,
					Contribution: &domain.Contribution{
						ContributionExtID:  "C1",
						DebateSectionExtID: "D1",
						House:              "Commons",
						MemberName:         "Jim Example",
						AttributedTo:       "Jim Example (Anytown) (Lab)",
						SittingDate:        time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
						DebateSection:      "Health",
						TextFull:           "The backlog is growing.",
					},
				},
			},
		}
		server := newTestServer(t, mockSearch, nil)

		input := ContributionsSearchInput{Query: "backlog", DebateID: "D1"}
		_, output, err := server.handleContributionsSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)

		c := output.Results[0]
		assert.Equal(t, "Jim Example", c.Member)
		assert.Equal(t, "2024-06-04", c.SittingDate)
		assert.Equal(t, "Health", c.DebateSection)
		assert.NotEmpty(t, c.DebateURL)
		assert.NotEmpty(t, c.ContributionURL)

		assert.Equal(t, domain.SourceHansard, mockSearch.lastReq.Source)
		assert.Equal(t, "D1", mockSearch.lastReq.DebateID)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{err: errors.New("index down")}
		server := newTestServer(t, mockSearch, nil)

		_, _, err := server.handleContributionsSearch(ctx, nil, ContributionsSearchInput{Query: "x"})

		require.Error(t, err)
	})
}

func TestServer_handleDebatesSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns mapped debate results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			debates: []domain.DebateResult{
				{
					DebateSectionExtID: "D1",
					Title:              "Health",
					House:              "Commons",
					SittingDate:        time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
					Score:              1.4,
					Contributions:      3,
					URL:                "https://hansard.parliament.uk/Commons/2024-06-04/debates/D1/link",
				},
			},
		}
		server := newTestServer(t, mockSearch, nil)

		input := DebatesSearchInput{Query: "dentistry", House: "Commons", Limit: 5}
		_, output, err := server.handleDebatesSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)

		d := output.Results[0]
		assert.Equal(t, "D1", d.DebateID)
		assert.Equal(t, "Health", d.Title)
		assert.Equal(t, "2024-06-04", d.SittingDate)
		assert.Equal(t, 3, d.Contributions)
		assert.NotEmpty(t, d.URL)

		assert.Equal(t, "dentistry", mockSearch.lastReq.Text)
		assert.Equal(t, "Commons", mockSearch.lastReq.House)
		assert.Equal(t, 5, mockSearch.lastReq.Limit)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{err: errors.New("index down")}
		server := newTestServer(t, mockSearch, nil)

		_, _, err := server.handleDebatesSearch(ctx, nil, DebatesSearchInput{Query: "x"})

		require.Error(t, err)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("runs ingestion and returns the summary", func(t *testing.T) {
		mockIngest := &mockIngestor{
			summary: domain.Summary{
				RunID:   "run-1",
				State:   domain.RunCompleted,
				Fetched: 12,
				Written: 12,
			},
		}
		server := newTestServer(t, nil, mockIngest)

		input := IngestInput{Source: "hansard", From: "3 days ago", To: "today"}
		_, summary, err := server.handleIngest(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "run-1", summary.RunID)
		assert.Equal(t, 12, summary.Written)

		assert.Equal(t, domain.SourceHansard, mockIngest.lastReq.Source)
		assert.Equal(t, "3 days ago", mockIngest.lastReq.From)
		assert.Equal(t, "today", mockIngest.lastReq.To)
	})

	t.Run("partial runs return both summary and error", func(t *testing.T) {
		mockIngest := &mockIngestor{
			summary: domain.Summary{State: domain.RunCompleted, Partial: true},
			err:     domain.ErrUpstreamUnavailable,
		}
		server := newTestServer(t, nil, mockIngest)

		_, summary, err := server.handleIngest(ctx, nil, IngestInput{Source: "hansard", From: "today", To: "today"})

		require.Error(t, err)
		assert.True(t, summary.Partial)
	})
}
