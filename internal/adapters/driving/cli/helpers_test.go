package cli

import (
	"context"
	"time"

	"github.com/openparl/parlsearch/internal/config"
	"github.com/openparl/parlsearch/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	debates []domain.DebateResult
	lastReq domain.SearchRequest
	err     error
}

func (m *mockSearchService) Search(
	_ context.Context,
	req domain.SearchRequest,
) ([]domain.SearchResult, error) {
	m.lastReq = req
	return m.results, m.err
}

func (m *mockSearchService) SearchDebates(
	_ context.Context,
	req domain.SearchRequest,
) ([]domain.DebateResult, error) {
	m.lastReq = req
	return m.debates, m.err
}

// mockIngestor is a mock implementation of driving.Ingestor.
type mockIngestor struct {
	summary domain.Summary
	reqs    []domain.IngestionRequest
	err     error
}

func (m *mockIngestor) Run(
	_ context.Context,
	req domain.IngestionRequest,
) (domain.Summary, error) {
	m.reqs = append(m.reqs, req)
	return m.summary, m.err
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Score: 0.9,
			Question: &domain.ParliamentaryQuestion{
				ID:           1,
				House:        "Commons",
				Heading:      "NHS Dentistry",
				AskingMember: &domain.Member{ID: 10, Name: "Jim Example", Party: "Labour"},
				DateTabled:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
				QuestionText: "What steps are being taken.",
				AnswerText:   "Several steps.",
			},
		},
	}
}

// setupTestServices wires mock services and returns their cleanup.
func setupTestServices(search *mockSearchService, ingest *mockIngestor) func() {
	if search == nil {
		search = &mockSearchService{}
	}
	if ingest == nil {
		ingest = &mockIngestor{}
	}
	SetServices(Services{
		Config: config.Default(),
		Search: search,
		Ingest: ingest,
	})
	return func() {
		SetServices(Services{})
	}
}
