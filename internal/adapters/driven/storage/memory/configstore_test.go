package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("search.mode", "semantic"))
	require.NoError(t, store.Set("chunker.max_length", 1000))
	require.NoError(t, store.Set("chunker.overlap", int64(200)))
	require.NoError(t, store.Set("chunker.min_length", 10.0))
	require.NoError(t, store.Set("retrieval.keyword_divisor", float32(10)))
	require.NoError(t, store.Set("log.verbose", true))
	require.NoError(t, store.Set("pipeline.processors", []any{"chunker", 3, "dedupe"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("search.mode"), "semantic"},
		{"int", store.GetInt("chunker.max_length"), 1000},
		{"int from int64", store.GetInt("chunker.overlap"), 200},
		{"int from float64", store.GetInt("chunker.min_length"), 10},
		{"float from float32", store.GetFloat("retrieval.keyword_divisor"), 10.0},
		{"float from int64", store.GetFloat("chunker.overlap"), 200.0},
		{"bool", store.GetBool("log.verbose"), true},
		{"slice skips non-strings", store.GetStringSlice("pipeline.processors"), []string{"chunker", "dedupe"}},
		{"missing", store.GetString("store.path"), ""},
		{"wrong type", store.GetBool("search.mode"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("embedding.provider", "hashing"))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	val, ok := store.Get("embedding.provider")

	assert.True(t, ok)
	assert.Equal(t, "ollama", val)
}

func TestConfigStore_NoOpPersistence(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("store.backend", "memory"))

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "memory", store.GetString("store.backend"), "load keeps in-memory values")
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_InstancesAreIsolated(t *testing.T) {
	a, b := NewConfigStore(), NewConfigStore()
	require.NoError(t, a.Set("search.mode", "keyword"))

	_, ok := b.Get("search.mode")

	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("workers.w%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("workers.w%d", n))
		}(i)
	}
	wg.Wait()

	for i := range 50 {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("workers.w%d", i)))
	}
}
