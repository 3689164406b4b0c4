package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for parlsearch resources.
	uriScheme = "parlsearch://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing indexed collections.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "List of all indexed record collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	// Template for one collection by its record source.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "collections/{source}",
		Name:        "collection",
		Description: "Indexed collection for a record source",
		MIMEType:    "application/json",
	}, s.handleCollectionResource)
}

// handleCollectionsResource returns the list of indexed collections.
func (s *Server) handleCollectionsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if len(s.ports.Collections) == 0 {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	data, err := json.MarshalIndent(s.ports.Collections, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collections: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleCollectionResource returns one collection selected by source.
func (s *Server) handleCollectionResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract source from URI: parlsearch://collections/{source}
	source := extractCollectionSource(req.Params.URI)
	if source == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	for _, col := range s.ports.Collections {
		if col.Source != source {
			continue
		}
		data, err := json.MarshalIndent(col, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling collection: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	}

	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// extractCollectionSource extracts the source from a URI like
// parlsearch://collections/{source}.
func extractCollectionSource(uri string) string {
	const prefix = uriScheme + "collections/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
