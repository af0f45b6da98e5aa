package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"
)

// documentInfo is the JSON form of one indexed document.
type documentInfo struct {
	Reference  string `json:"reference"`
	FilePath   string `json:"file_path,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	UploadDate string `json:"upload_date,omitempty"`
	Chunks     int    `json:"chunks"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents in the chunk index with their chunk counts",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Chunk index statistics",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{reference}",
		Name:        "document",
		Description: "Indexed documents matching a file name",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleDocumentsResource returns every indexed document.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return jsonResult(req.Params.URI, []documentInfo{})
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonResult(req.Params.URI, toDocumentInfos(docs, ""))
}

// handleDocumentResource returns the documents matching the reference in the URI.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	ref := extractReference(req.Params.URI)
	if ref == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	infos := toDocumentInfos(docs, ref)
	if len(infos) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResult(req.Params.URI, infos)
}

// handleStatsResource returns index statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Document.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return jsonResult(req.Params.URI, map[string]any{
		"chunks":     stats.Chunks,
		"documents":  stats.Documents,
		"dimensions": stats.Dimensions,
		"location":   stats.Location,
	})
}

// toDocumentInfos converts documents, keeping those matching ref when it is set.
func toDocumentInfos(docs []domain.DocumentInfo, ref string) []documentInfo {
	infos := make([]documentInfo, 0, len(docs))
	for i := range docs {
		if ref != "" && !domain.MatchesReference(map[string]any{
			domain.MetaOriginalFilename: docs[i].Reference,
			domain.MetaFilePath:         docs[i].FilePath,
		}, ref) {
			continue
		}
		infos = append(infos, documentInfo{
			Reference:  docs[i].Reference,
			FilePath:   docs[i].FilePath,
			UserID:     docs[i].UserID,
			UploadDate: docs[i].UploadDate,
			Chunks:     docs[i].Chunks,
		})
	}
	return infos
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractReference extracts the reference from a URI like docqa://documents/{reference}.
// The reference may be percent-encoded.
func extractReference(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	ref := strings.TrimPrefix(uri, prefix)
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}
	return ref
}
