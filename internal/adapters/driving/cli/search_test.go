package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func testResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			ChunkID: "c-1",
			Content: "De huur bedraagt 950 euro per maand.",
			Metadata: map[string]any{
				domain.MetaOriginalFilename: "huurcontract.txt",
				domain.MetaChunk:            2,
			},
			Relevance:  1.35,
			MatchType:  domain.MatchHybrid,
			Highlights: []string{"De huur bedraagt 950 euro per maand."},
		},
		{
			ChunkID:   "c-2",
			Content:   "Opzegtermijn is een maand.",
			Metadata:  map[string]any{domain.MetaFilename: "u1_voorwaarden.md"},
			Relevance: 0.3,
			MatchType: domain.MatchKeyword,
		},
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
	assert.Equal(t, "Search indexed documents", searchCmd.Short)
	assert.Contains(t, searchCmd.Long, "Hybrid mode")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearchCmd_Flags(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)

	for _, name := range []string{"document", "mode", "json", "output"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), name)
	}
}

func TestSearchCmd_Table(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.results = testResults()

	out, err := run("search", "hoeveel", "huur", "-n", "3", "--document", "huur", "--mode", "Hybrid")

	require.NoError(t, err)
	assert.Equal(t, "hoeveel huur", ts.search.query)
	assert.Equal(t, 3, ts.search.lastOpts.Limit)
	assert.Equal(t, "huur", ts.search.lastOpts.DocumentFilter)
	assert.Equal(t, domain.SearchModeHybrid, ts.search.lastOpts.Mode)

	assert.Contains(t, out, "[1] huurcontract.txt (chunk 2) 1.35 [hybrid]")
	assert.Contains(t, out, "De huur bedraagt 950 euro per maand.")
	assert.Contains(t, out, "[2] u1_voorwaarden.md 0.30 [keyword]")
	assert.Contains(t, out, "Opzegtermijn is een maand.")
}

func TestSearchCmd_NoResults(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("search", "nothing")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.results = testResults()

	out, err := run("search", "huur", "--json")

	require.NoError(t, err)
	var views []searchResultView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Rank)
	assert.Equal(t, "c-1", views[0].ChunkID)
	assert.Equal(t, "huurcontract.txt", views[0].Document)
	assert.Equal(t, "hybrid", views[0].SearchType)
	assert.Equal(t, "keyword", views[1].SearchType)
}

func TestSearchCmd_YAML(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.results = testResults()[:1]

	out, err := run("search", "huur", "-o", "yaml")

	require.NoError(t, err)
	var views []searchResultView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "huurcontract.txt", views[0].Document)
	assert.InDelta(t, 1.35, views[0].Relevance, 1e-9)
}

func TestSearchCmd_InvalidMode(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("search", "q", "--mode", "fuzzy")

	assert.ErrorContains(t, err, "unknown search mode")
}

func TestSearchCmd_InvalidOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("search", "q", "-o", "xml")

	assert.ErrorContains(t, err, "unknown output format")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.err = errors.New("index unavailable")

	_, err := run("search", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
	assert.Contains(t, err.Error(), "index unavailable")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short text", truncate("short\n  text", 20))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "ééé…", truncate("éééééé", 4))
}
