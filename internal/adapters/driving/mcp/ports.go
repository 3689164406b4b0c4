package mcp

import (
	"github.com/openparl/parlsearch/internal/core/ports/driving"
)

// CollectionInfo describes one indexed collection for the resources
// surface.
type CollectionInfo struct {
	// Name is the index collection name.
	Name string `json:"name"`

	// Source is the record source the collection holds.
	Source string `json:"source"`
}

// Ports aggregates the driving port interfaces the MCP server exposes.
// Single injection point for dependency injection.
type Ports struct {
	// Search plans and executes hybrid queries.
	Search driving.SearchService

	// Ingest runs ingestion for a source and date range.
	Ingest driving.Ingestor

	// Collections lists the indexed collections exposed as resources.
	// Optional; when empty the collections resource reads as empty.
	Collections []CollectionInfo
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Ingest == nil {
		return ErrMissingIngestor
	}
	return nil
}
