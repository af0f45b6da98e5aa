package domain

// SearchMode selects which retrieval passes a query runs.
type SearchMode string

// Available search modes.
const (
	// SearchModeHybrid fuses semantic and keyword results.
	SearchModeHybrid SearchMode = "hybrid"

	// SearchModeSemantic uses only vector similarity.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeKeyword uses only lexical term matching.
	SearchModeKeyword SearchMode = "keyword"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeHybrid, SearchModeSemantic, SearchModeKeyword:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode needs an embedding provider.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeHybrid || m == SearchModeSemantic
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeHybrid:
		return "Hybrid (semantic + keyword)"
	case SearchModeSemantic:
		return "Semantic (vector similarity)"
	case SearchModeKeyword:
		return "Keyword (term matching)"
	default:
		return unknownDescription
	}
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{
		SearchModeHybrid,
		SearchModeSemantic,
		SearchModeKeyword,
	}
}

// MatchType records which pass produced a result.
type MatchType string

// Result match types.
const (
	MatchSemantic MatchType = "semantic"
	MatchKeyword  MatchType = "keyword"
	MatchHybrid   MatchType = "hybrid"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero uses the configured default.
	Limit int

	// DocumentFilter restricts results to chunks of one source document.
	// Matched like MatchesReference. Empty means no filter.
	DocumentFilter string

	// Mode selects the retrieval passes. Empty means hybrid.
	Mode SearchMode
}

// SearchResult represents a single ranked hit.
type SearchResult struct {
	// ChunkID is the id of the matched chunk.
	ChunkID string

	// Content is the chunk text.
	Content string

	// Metadata is the chunk metadata as stored.
	Metadata map[string]any

	// Relevance is the fused score. Typically 0 to about 1.4.
	Relevance float64

	// MatchType is the pass that produced the result.
	MatchType MatchType

	// Highlights contains sentences with matched query terms.
	Highlights []string
}

// Reference returns the document name the result belongs to.
func (r SearchResult) Reference() string {
	for _, key := range []string{MetaOriginalFilename, MetaFilename, MetaFilePath} {
		if s, ok := r.Metadata[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
