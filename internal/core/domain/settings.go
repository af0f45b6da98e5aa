package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderHashing is the built-in offline hashing encoder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or any compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs without a network service.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend selects where the chunk store artifact is persisted.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendJSON writes a single JSON file.
	StoreBackendJSON StoreBackend = "json"

	// StoreBackendSQLite writes a SQLite database.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendMemory keeps the artifact in process memory only.
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendJSON, StoreBackendSQLite, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// Mode is the default search mode.
	Mode SearchMode
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size for the hashing provider.
	Dimensions int

	// RequestsPerSecond throttles remote providers. Zero is unlimited.
	RequestsPerSecond float64

	// CacheTTL is how long query embeddings are cached. Zero disables caching.
	CacheTTL time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkerSettings holds text splitting parameters, measured in characters.
type ChunkerSettings struct {
	// MaxLength is the window size.
	MaxLength int

	// Overlap is the number of characters consecutive chunks share.
	Overlap int

	// MinLength discards fragments shorter than this.
	MinLength int
}

// RetrievalSettings holds the hybrid scoring constants.
type RetrievalSettings struct {
	// SemanticThreshold is the exclusive lower bound on cosine similarity.
	SemanticThreshold float64

	// SemanticBoost multiplies semantic scores during fusion.
	SemanticBoost float64

	// KeywordBoost multiplies keyword scores of chunks found by both passes.
	KeywordBoost float64

	// KeywordDivisor normalises raw keyword scores.
	KeywordDivisor float64

	// KeywordCap is the maximum normalised keyword score.
	KeywordCap float64

	// DefaultLimit is used when a query does not specify one.
	DefaultLimit int
}

// StoreSettings holds chunk store persistence configuration.
type StoreSettings struct {
	// Backend selects the artifact format.
	Backend StoreBackend

	// Path is the data directory holding the artifact.
	Path string
}

// LogSettings holds logging configuration.
type LogSettings struct {
	// File is the rotating log file. Empty disables file logging.
	File string

	// Verbose enables console debug output.
	Verbose bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search    SearchSettings
	Embedding EmbeddingSettings
	Chunker   ChunkerSettings
	Retrieval RetrievalSettings
	Store     StoreSettings
	Log       LogSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The hashing provider works offline so semantic search is available out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Mode: SearchModeHybrid,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Dimensions: 512,
			CacheTTL:   10 * time.Minute,
		},
		Chunker:   DefaultChunkerSettings(),
		Retrieval: DefaultRetrievalSettings(),
		Store: StoreSettings{
			Backend: StoreBackendJSON,
		},
	}
}

// DefaultChunkerSettings returns the default splitting parameters.
func DefaultChunkerSettings() ChunkerSettings {
	return ChunkerSettings{
		MaxLength: 1000,
		Overlap:   200,
		MinLength: 10,
	}
}

// DefaultRetrievalSettings returns the default scoring constants.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		SemanticThreshold: 0.1,
		SemanticBoost:     1.2,
		KeywordBoost:      1.5,
		KeywordDivisor:    10,
		KeywordCap:        1.0,
		DefaultLimit:      10,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-xxh64",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration:
// split into chunks, then drop repeated chunk texts within a document.
func DefaultPipelineConfig() PipelineConfig {
	chunker := DefaultChunkerSettings()
	return PipelineConfig{
		Processors: []string{"chunker", "dedupe"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": chunker.MaxLength,
				"overlap":    chunker.Overlap,
				"min_length": chunker.MinLength,
			},
		},
	}
}
