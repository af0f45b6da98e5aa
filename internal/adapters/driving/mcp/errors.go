// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants search the chunk index and add or remove documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingDocumentService is returned by document tools when no document service is configured.
var ErrMissingDocumentService = errors.New("mcp: document service is not configured")
