package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.SearchResult
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.DocumentInfo
	stats     domain.IndexStats
	chunks    int
	err       error

	added     []domain.Document
	indexed   []string
	indexOpts driving.IndexOptions
	removed   []string
}

func (m *mockDocumentService) AddDocument(_ context.Context, doc domain.Document) (int, error) {
	m.added = append(m.added, doc)
	return m.chunks, m.err
}

func (m *mockDocumentService) IndexFile(_ context.Context, path string, opts driving.IndexOptions) (int, error) {
	m.indexed = append(m.indexed, path)
	m.indexOpts = opts
	return m.chunks, m.err
}

func (m *mockDocumentService) RemoveDocument(_ context.Context, ref string) (int, error) {
	m.removed = append(m.removed, ref)
	return m.chunks, m.err
}

func (m *mockDocumentService) ReprocessDocument(_ context.Context, _ string, _ domain.Document) (int, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) ReprocessFile(_ context.Context, _, _ string, _ driving.IndexOptions) (int, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) ReprocessAll(_ context.Context) (*driving.ReprocessReport, error) {
	return &driving.ReprocessReport{}, m.err
}

func (m *mockDocumentService) DeleteDocument(_ context.Context, _, _ string) (int, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}
