package cli

import (
	"bytes"
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockSearchService implements driving.SearchService for CLI tests.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	query    string
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.query = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockDocumentService implements driving.DocumentService for CLI tests.
type mockDocumentService struct {
	documents []domain.DocumentInfo
	stats     domain.IndexStats
	report    *driving.ReprocessReport
	chunks    int
	err       error
	failPaths map[string]error

	indexed   []string
	indexOpts []driving.IndexOptions
	removed   []string
	deleted   [][2]string
	reprocess [][2]string
}

func (m *mockDocumentService) AddDocument(context.Context, domain.Document) (int, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) IndexFile(_ context.Context, path string, opts driving.IndexOptions) (int, error) {
	if err := m.failPaths[path]; err != nil {
		return 0, err
	}
	m.indexed = append(m.indexed, path)
	m.indexOpts = append(m.indexOpts, opts)
	return m.chunks, m.err
}

func (m *mockDocumentService) RemoveDocument(_ context.Context, ref string) (int, error) {
	m.removed = append(m.removed, ref)
	return m.chunks, m.err
}

func (m *mockDocumentService) ReprocessDocument(context.Context, string, domain.Document) (int, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) ReprocessFile(_ context.Context, oldRef, path string, opts driving.IndexOptions) (int, error) {
	m.reprocess = append(m.reprocess, [2]string{oldRef, path})
	m.indexOpts = append(m.indexOpts, opts)
	return m.chunks, m.err
}

func (m *mockDocumentService) ReprocessAll(context.Context) (*driving.ReprocessReport, error) {
	if m.report == nil {
		return &driving.ReprocessReport{}, m.err
	}
	return m.report, m.err
}

func (m *mockDocumentService) DeleteDocument(_ context.Context, ref, path string) (int, error) {
	m.deleted = append(m.deleted, [2]string{ref, path})
	return m.chunks, m.err
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentInfo, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Stats(context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

// mockSettingsService implements driving.SettingsService for CLI tests.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error

	mode     domain.SearchMode
	provider domain.AIProvider
	model    string
	apiKey   string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetSearchMode(mode domain.SearchMode) error {
	m.mode = mode
	m.settings.Search.Mode = mode
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider, m.model, m.apiKey = provider, model, apiKey
	m.settings.Embedding.Provider = provider
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.pingErr }
func (m *mockSettingsService) GetPipelineConfig() domain.PipelineConfig {
	return domain.DefaultPipelineConfig()
}

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	docs     *mockDocumentService
	settings *mockSettingsService
}

// setupTestServices installs fresh mocks and resets command flags.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		search:   &mockSearchService{},
		docs:     &mockDocumentService{},
		settings: newMockSettingsService(),
	}
	SetServices(&Services{
		Search:    ts.search,
		Document:  ts.docs,
		Settings:  ts.settings,
		MIMETypes: []string{"text/plain", "text/markdown"},
	})
	resetFlags()

	return ts, func() {
		SetServices(nil)
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
}

func resetFlags() {
	searchLimit, searchDocument, searchMode, searchJSON, searchOutput = 0, "", "", false, formatText
	indexUserID, indexOriginalName, deleteRef, reprocessOldRef = "", "", "", ""
	documentsOutput, statsOutput = formatText, formatText
	embeddingProviderFlag, embeddingModelFlag, embeddingAPIKeyFlag = "", "", ""
	watchSync, watchUserID = false, ""
}

// run executes the root command with args and returns combined output.
func run(args ...string) (string, error) {
	return runWithInput("", args...)
}

func runWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
