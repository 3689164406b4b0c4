// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants search and ingest parliamentary records.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingIngestor is returned when the ingestor is not provided.
var ErrMissingIngestor = errors.New("mcp: ingestor is required")
