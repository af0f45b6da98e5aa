package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func newTestSettingsService(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	service.getenv = func(key string) string { return env[key] }
	return service, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Search, settings.Search)
	assert.Equal(t, defaults.Chunker, settings.Chunker)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, domain.AIProviderHashing, settings.Embedding.Provider)
	assert.Equal(t, "hashing-xxh64", settings.Embedding.Model)
	assert.Equal(t, 512, settings.Embedding.Dimensions)
	assert.Equal(t, 10*time.Minute, settings.Embedding.CacheTTL)
	assert.Equal(t, domain.StoreBackendJSON, settings.Store.Backend)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("search.mode", "keyword")
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("embedding.model", "all-minilm")
	_ = store.Set("embedding.base_url", "http://gpu:11434")
	_ = store.Set("embedding.requests_per_second", 2.5)
	_ = store.Set("embedding.cache_ttl_seconds", int64(30))
	_ = store.Set("chunker.max_length", int64(500))
	_ = store.Set("chunker.overlap", int64(0))
	_ = store.Set("retrieval.semantic_threshold", 0.25)
	_ = store.Set("retrieval.default_limit", int64(4))
	_ = store.Set("store.backend", "sqlite")
	_ = store.Set("store.path", "/var/lib/docqa")
	_ = store.Set("log.file", "/var/log/docqa.log")
	_ = store.Set("log.verbose", true)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeKeyword, settings.Search.Mode)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.Equal(t, "http://gpu:11434", settings.Embedding.BaseURL)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, 30*time.Second, settings.Embedding.CacheTTL)
	assert.Equal(t, 500, settings.Chunker.MaxLength)
	assert.Equal(t, 0, settings.Chunker.Overlap, "an explicit zero overlap is kept")
	assert.Equal(t, 10, settings.Chunker.MinLength)
	assert.InDelta(t, 0.25, settings.Retrieval.SemanticThreshold, 1e-9)
	assert.InDelta(t, 1.2, settings.Retrieval.SemanticBoost, 1e-9)
	assert.Equal(t, 4, settings.Retrieval.DefaultLimit)
	assert.Equal(t, domain.StoreBackendSQLite, settings.Store.Backend)
	assert.Equal(t, "/var/lib/docqa", settings.Store.Path)
	assert.Equal(t, "/var/log/docqa.log", settings.Log.File)
	assert.True(t, settings.Log.Verbose)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("search.mode", "fuzzy")
	_ = store.Set("embedding.provider", "anthropic")
	_ = store.Set("store.backend", "postgres")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeHybrid, settings.Search.Mode)
	assert.Equal(t, domain.AIProviderHashing, settings.Embedding.Provider)
	assert.Equal(t, domain.StoreBackendJSON, settings.Store.Backend)
}

func TestSettingsService_Get_OpenAIKeyFromEnvironment(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})
	_ = store.Set("embedding.provider", "openai")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.True(t, settings.Embedding.IsConfigured())

	_ = store.Set("embedding.api_key", "sk-stored")
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", settings.Embedding.APIKey)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	settings := domain.DefaultAppSettings()
	settings.Search.Mode = domain.SearchModeSemantic
	settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.Embedding.Model = "text-embedding-3-large"
	settings.Embedding.APIKey = "sk-test"
	settings.Embedding.CacheTTL = 2 * time.Minute
	settings.Chunker.MaxLength = 800
	settings.Retrieval.KeywordBoost = 2
	settings.Store.Backend = domain.StoreBackendMemory

	require.NoError(t, service.Save(&settings))
	loaded, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, settings, *loaded)
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKey(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})
	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.Embedding.APIKey = "sk-env"

	require.NoError(t, service.Save(&settings))

	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_SetSearchMode(t *testing.T) {
	service, store := newTestSettingsService(nil)

	require.NoError(t, service.SetSearchMode(domain.SearchModeKeyword))
	assert.Equal(t, "keyword", store.GetString("search.mode"))

	err := service.SetSearchMode("fuzzy")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_OpenAI(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	_ = service.SetEmbeddingProvider(domain.AIProviderOllama, "", "")

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, 3072, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_RequiresAPIKey(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	withEnv, _ := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})
	assert.NoError(t, withEnv.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_SetEmbeddingProvider_Invalid(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	err := service.SetEmbeddingProvider("anthropic", "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr bool
	}{
		{name: "defaults", wantErr: false},
		{name: "semantic without key", values: map[string]any{"search.mode": "semantic", "embedding.provider": "openai"}, wantErr: true},
		{name: "hybrid without key degrades", values: map[string]any{"embedding.provider": "openai"}, wantErr: false},
		{name: "zero max length", values: map[string]any{"chunker.max_length": 0}, wantErr: true},
		{name: "overlap too large", values: map[string]any{"chunker.max_length": 100, "chunker.overlap": 100}, wantErr: true},
		{name: "negative overlap", values: map[string]any{"chunker.overlap": -1}, wantErr: true},
		{name: "zero divisor", values: map[string]any{"retrieval.keyword_divisor": 0}, wantErr: true},
		{name: "zero limit", values: map[string]any{"retrieval.default_limit": 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestSettingsService(nil)
			for k, v := range tt.values {
				require.NoError(t, store.Set(k, v))
			}

			err := service.Validate()

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsService_ValidateEmbeddingConfig(t *testing.T) {
	store := memory.NewConfigStore()

	assert.NoError(t, NewSettingsService(store, nil).ValidateEmbeddingConfig())

	validator := &mockAIValidator{err: errors.New("unreachable")}
	err := NewSettingsService(store, validator).ValidateEmbeddingConfig()
	assert.Error(t, err)
	assert.True(t, validator.called)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	service, store := newTestSettingsService(nil)

	cfg := service.GetPipelineConfig()
	assert.Equal(t, []string{"chunker", "dedupe"}, cfg.Processors)
	assert.Equal(t, 1000, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 200, cfg.GetProcessorConfig("chunker")["overlap"])

	_ = store.Set("chunker.max_length", 600)
	_ = store.Set("pipeline.chunker.overlap", 50)
	_ = store.Set("pipeline.processors", []string{"chunker"})

	cfg = service.GetPipelineConfig()
	assert.Equal(t, []string{"chunker"}, cfg.Processors)
	assert.Equal(t, 600, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 50, cfg.GetProcessorConfig("chunker")["overlap"])
	assert.Equal(t, 10, cfg.GetProcessorConfig("chunker")["min_length"])
}
