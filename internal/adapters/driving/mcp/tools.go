package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the question or keywords to search for"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Document string `json:"document,omitempty" jsonschema:"restrict results to one document by file name"`
	Mode     string `json:"mode,omitempty" jsonschema:"hybrid, semantic or keyword (default hybrid)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    string   `json:"chunk_id"`
	Document   string   `json:"document"`
	Chunk      int      `json:"chunk,omitempty"`
	Relevance  float64  `json:"relevance"`
	SearchType string   `json:"search_type"`
	Highlights []string `json:"highlights,omitempty"`
	Content    string   `json:"content"`
}

// AddDocumentInput is the input schema for the add_document tool.
type AddDocumentInput struct {
	Filename string `json:"filename" jsonschema:"name the document is listed and removed by"`
	Content  string `json:"content,omitempty" jsonschema:"plain text of the document"`
	Path     string `json:"path,omitempty" jsonschema:"stored file to index instead of content"`
	UserID   string `json:"user_id,omitempty" jsonschema:"owner of the document"`
}

// AddDocumentOutput is the output schema for the add_document tool.
type AddDocumentOutput struct {
	Document string `json:"document"`
	Chunks   int    `json:"chunks"`
}

// RemoveDocumentInput is the input schema for the remove_document tool.
type RemoveDocumentInput struct {
	Document string `json:"document" jsonschema:"file name or path of the document to remove"`
}

// RemoveDocumentOutput is the output schema for the remove_document tool.
type RemoveDocumentOutput struct {
	Document string `json:"document"`
	Removed  int    `json:"removed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed document chunks by meaning and keywords",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_document",
		Description: "Chunk and index a document from text or a stored file",
	}, s.handleAddDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_document",
		Description: "Remove every indexed chunk of a document",
	}, s.handleRemoveDocument)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{
		Limit:          limit,
		DocumentFilter: input.Document,
		Mode:           domain.SearchMode(input.Mode),
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		chunk, _ := results[i].Metadata[domain.MetaChunk].(int)
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].ChunkID,
			Document:   results[i].Reference(),
			Chunk:      chunk,
			Relevance:  results[i].Relevance,
			SearchType: string(results[i].MatchType),
			Highlights: results[i].Highlights,
			Content:    results[i].Content,
		}
	}

	return nil, output, nil
}

// handleAddDocument handles the add_document tool invocation.
func (s *Server) handleAddDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDocumentInput,
) (*mcp.CallToolResult, AddDocumentOutput, error) {
	if s.ports.Document == nil {
		return nil, AddDocumentOutput{}, ErrMissingDocumentService
	}

	var (
		chunks int
		err    error
	)
	switch {
	case input.Path != "":
		chunks, err = s.ports.Document.IndexFile(ctx, input.Path, driving.IndexOptions{
			OriginalFilename: input.Filename,
			UserID:           input.UserID,
		})
	case input.Filename != "":
		chunks, err = s.ports.Document.AddDocument(ctx, domain.Document{
			Filename:         input.Filename,
			OriginalFilename: input.Filename,
			FileType:         fileType(input.Filename),
			UserID:           input.UserID,
			Content:          input.Content,
			UploadedAt:       time.Now(),
		})
	default:
		return nil, AddDocumentOutput{}, fmt.Errorf("%w: filename or path is required", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, AddDocumentOutput{}, err
	}

	name := input.Filename
	if name == "" {
		name = input.Path
	}
	return nil, AddDocumentOutput{Document: name, Chunks: chunks}, nil
}

// handleRemoveDocument handles the remove_document tool invocation.
func (s *Server) handleRemoveDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveDocumentInput,
) (*mcp.CallToolResult, RemoveDocumentOutput, error) {
	if s.ports.Document == nil {
		return nil, RemoveDocumentOutput{}, ErrMissingDocumentService
	}
	if strings.TrimSpace(input.Document) == "" {
		return nil, RemoveDocumentOutput{}, fmt.Errorf("%w: document is required", domain.ErrInvalidInput)
	}

	removed, err := s.ports.Document.RemoveDocument(ctx, input.Document)
	if err != nil {
		return nil, RemoveDocumentOutput{}, err
	}
	return nil, RemoveDocumentOutput{Document: input.Document, Removed: removed}, nil
}

// fileType returns the lowercase extension of name without the dot.
func fileType(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
