package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Embedding = domain.EmbeddingSettings{
		Provider:          domain.AIProviderOpenAI,
		Model:             "text-embedding-3-small",
		APIKey:            "sk-1234567890abcdef",
		RequestsPerSecond: 3,
	}

	out, err := run("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Mode: Hybrid (semantic + keyword)")
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.Contains(t, out, "Rate limit: 3.00 requests/s")
	assert.Contains(t, out, "Configuration is valid.")
	assert.NotContains(t, out, "1234567890")
}

func TestSettingsShow_InvalidConfiguration(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("semantic search requires an embedding provider")

	out, err := run("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: semantic search requires an embedding provider")
	assert.Contains(t, out, "docqa settings wizard")
}

func TestSettingsMode(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("settings", "mode", "Keyword")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeKeyword, ts.settings.mode)
	assert.Contains(t, out, "Search mode set to: Keyword (term matching)")
}

func TestSettingsMode_Interactive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runWithInput("2\n", "settings", "mode")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeSemantic, ts.settings.mode)
}

func TestSettingsMode_Invalid(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("settings", "mode", "fuzzy")
	assert.ErrorContains(t, err, "unknown search mode")

	_, err = runWithInput("9\n", "settings", "mode")
	assert.EqualError(t, err, "invalid selection")
	assert.Empty(t, ts.settings.mode)
}

func TestSettingsEmbedding_Flags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("settings", "embedding", "--provider", "ollama", "--model", "all-minilm")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.provider)
	assert.Equal(t, "all-minilm", ts.settings.model)
	assert.Empty(t, ts.settings.apiKey)
	assert.Contains(t, out, "Embedding provider configured: Ollama (local) (all-minilm)")
}

func TestSettingsEmbedding_Interactive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runWithInput("3\n\nsk-test-key\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, ts.settings.provider)
	assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderOpenAI], ts.settings.model)
	assert.Equal(t, "sk-test-key", ts.settings.apiKey)
}

func TestSettingsEmbedding_ValidationFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.pingErr = domain.ErrEmbeddingUnavailable

	out, err := run("settings", "embedding", "--provider", "ollama")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, out, "FAILED")
}

func TestSettingsWizard_KeywordSkipsEmbedding(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runWithInput("3\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeKeyword, ts.settings.mode)
	assert.Empty(t, ts.settings.provider)
	assert.Contains(t, out, "Step 2: Embedding Provider (skipped)")
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestSettingsWizard_Hybrid(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runWithInput("\n2\nall-minilm\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeHybrid, ts.settings.mode)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.provider)
	assert.Equal(t, "all-minilm", ts.settings.model)
}
