package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySearchMode        = "search.mode"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyEmbedCacheTTL     = "embedding.cache_ttl_seconds"
	keyChunkerMaxLength  = "chunker.max_length"
	keyChunkerOverlap    = "chunker.overlap"
	keyChunkerMinLength  = "chunker.min_length"
	keySemanticThreshold = "retrieval.semantic_threshold"
	keySemanticBoost     = "retrieval.semantic_boost"
	keyKeywordBoost      = "retrieval.keyword_boost"
	keyKeywordDivisor    = "retrieval.keyword_divisor"
	keyKeywordCap        = "retrieval.keyword_cap"
	keyDefaultLimit      = "retrieval.default_limit"
	keyStoreBackend      = "store.backend"
	keyStorePath         = "store.path"
	keyLogFile           = "log.file"
	keyLogVerbose        = "log.verbose"

	// envOpenAIKey is consulted when no API key is stored.
	envOpenAIKey = "OPENAI_API_KEY"

	defaultOllamaURL = "http://localhost:11434"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	apiKey := s.configStore.GetString(keyEmbedAPIKey)
	if apiKey == "" && provider == domain.AIProviderOpenAI {
		apiKey = s.getenv(envOpenAIKey)
	}

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			Mode: s.getSearchMode(defaults.Search.Mode),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[provider]),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            apiKey,
			Dimensions:        s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
			CacheTTL:          s.getSeconds(keyEmbedCacheTTL, defaults.Embedding.CacheTTL),
		},
		Chunker: domain.ChunkerSettings{
			MaxLength: s.getInt(keyChunkerMaxLength, defaults.Chunker.MaxLength),
			Overlap:   s.getInt(keyChunkerOverlap, defaults.Chunker.Overlap),
			MinLength: s.getInt(keyChunkerMinLength, defaults.Chunker.MinLength),
		},
		Retrieval: domain.RetrievalSettings{
			SemanticThreshold: s.getFloat(keySemanticThreshold, defaults.Retrieval.SemanticThreshold),
			SemanticBoost:     s.getFloat(keySemanticBoost, defaults.Retrieval.SemanticBoost),
			KeywordBoost:      s.getFloat(keyKeywordBoost, defaults.Retrieval.KeywordBoost),
			KeywordDivisor:    s.getFloat(keyKeywordDivisor, defaults.Retrieval.KeywordDivisor),
			KeywordCap:        s.getFloat(keyKeywordCap, defaults.Retrieval.KeywordCap),
			DefaultLimit:      s.getInt(keyDefaultLimit, defaults.Retrieval.DefaultLimit),
		},
		Store: domain.StoreSettings{
			Backend: s.getBackend(defaults.Store.Backend),
			Path:    s.configStore.GetString(keyStorePath),
		},
		Log: domain.LogSettings{
			File:    s.configStore.GetString(keyLogFile),
			Verbose: s.getBool(keyLogVerbose, defaults.Log.Verbose),
		},
	}

	return settings, nil
}

// Save persists application settings.
// An empty API key is never written so a key from the environment is not copied to disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keySearchMode, settings.Search.Mode.String()},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedCacheTTL, int(settings.Embedding.CacheTTL / time.Second)},
		{keyChunkerMaxLength, settings.Chunker.MaxLength},
		{keyChunkerOverlap, settings.Chunker.Overlap},
		{keyChunkerMinLength, settings.Chunker.MinLength},
		{keySemanticThreshold, settings.Retrieval.SemanticThreshold},
		{keySemanticBoost, settings.Retrieval.SemanticBoost},
		{keyKeywordBoost, settings.Retrieval.KeywordBoost},
		{keyKeywordDivisor, settings.Retrieval.KeywordDivisor},
		{keyKeywordCap, settings.Retrieval.KeywordCap},
		{keyDefaultLimit, settings.Retrieval.DefaultLimit},
		{keyStoreBackend, string(settings.Store.Backend)},
		{keyStorePath, settings.Store.Path},
		{keyLogFile, settings.Log.File},
		{keyLogVerbose, settings.Log.Verbose},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.getenv(envOpenAIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// SetSearchMode updates the search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: invalid search mode: %s", domain.ErrInvalidInput, mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Search.Mode = mode
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	if apiKey == "" && provider.RequiresAPIKey() {
		apiKey = s.getenv(envOpenAIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Update dimensions for models with a known vector size
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Search.Mode.IsValid() {
		return fmt.Errorf("%w: invalid search mode: %s", domain.ErrInvalidInput, settings.Search.Mode)
	}

	if settings.Search.Mode == domain.SearchModeSemantic && !settings.Embedding.IsConfigured() {
		return fmt.Errorf(
			"%w: search mode %q requires embedding provider to be configured",
			domain.ErrInvalidInput, settings.Search.Mode.Description(),
		)
	}

	c := settings.Chunker
	if c.MaxLength <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyChunkerMaxLength)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxLength {
		return fmt.Errorf("%w: %s must be in [0, %s)", domain.ErrInvalidInput, keyChunkerOverlap, keyChunkerMaxLength)
	}
	if c.MinLength < 0 {
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, keyChunkerMinLength)
	}

	r := settings.Retrieval
	if r.KeywordDivisor <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyKeywordDivisor)
	}
	if r.DefaultLimit <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyDefaultLimit)
	}

	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, settings.Store.Backend)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// The chunker parameters come from the chunker.* settings; per-processor
// pipeline.<name>.* keys override them.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	defaults := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice("pipeline.processors"); len(processors) > 0 {
		defaults.Processors = processors
	}

	if settings, err := s.Get(); err == nil {
		defaults.ProcessorConfigs["chunker"] = map[string]any{
			"chunk_size": settings.Chunker.MaxLength,
			"overlap":    settings.Chunker.Overlap,
			"min_length": settings.Chunker.MinLength,
		}
	}

	for _, name := range defaults.Processors {
		cfg := s.loadProcessorConfig("pipeline." + name + ".")
		if len(cfg) == 0 {
			continue
		}
		existing := defaults.ProcessorConfigs[name]
		if existing == nil {
			existing = make(map[string]any)
		}
		for k, v := range cfg {
			existing[k] = v
		}
		defaults.ProcessorConfigs[name] = existing
	}

	return defaults
}

// loadProcessorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadProcessorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)

	knownKeys := []string{"chunk_size", "overlap", "min_length"}
	for _, key := range knownKeys {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt treats a missing key as unset; an explicit 0 is kept.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode := domain.SearchMode(s.configStore.GetString(keySearchMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
