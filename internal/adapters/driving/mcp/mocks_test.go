package mcp

import (
	"context"

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
	lastReq domain.IngestionRequest
	err     error
}

func (m *mockIngestor) Run(
	_ context.Context,
	req domain.IngestionRequest,
) (domain.Summary, error) {
	m.lastReq = req
	return m.summary, m.err
}
