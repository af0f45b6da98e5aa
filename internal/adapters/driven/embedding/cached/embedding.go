// Package cached memoises embeddings of an underlying EmbeddingService.
//
// Repeated queries and reprocessed documents with unchanged chunks are
// answered from an in-process cache with a time-to-live.
package cached

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultTTL is how long an embedding stays cached.
const DefaultTTL = 10 * time.Minute

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService wraps another EmbeddingService with a cache.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache *cache.Cache
}

// New wraps inner. A ttl of zero uses DefaultTTL.
func New(inner driven.EmbeddingService, ttl time.Duration) *EmbeddingService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmbeddingService{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Embed returns the cached vector for text or computes and caches it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.lookup(text); ok {
		return v, nil
	}
	v, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.store(text, v)
	return clone(v), nil
}

// EmbedBatch computes only the texts that are not cached, in one inner call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range texts {
		if v, ok := s.lookup(text); ok {
			out[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	computed, err := s.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missing) {
		return nil, fmt.Errorf("embedding batch returned %d vectors for %d texts", len(computed), len(missing))
	}
	for j, v := range computed {
		s.store(missing[j], v)
		out[missingIdx[j]] = clone(v)
	}
	return out, nil
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Len returns the number of cached vectors, including expired ones not yet purged.
func (s *EmbeddingService) Len() int {
	return s.cache.ItemCount()
}

// Close flushes the cache and closes the inner service.
func (s *EmbeddingService) Close() error {
	s.cache.Flush()
	return s.inner.Close()
}

func (s *EmbeddingService) key(text string) string {
	return s.inner.ModelName() + "\x00" + text
}

func (s *EmbeddingService) lookup(text string) ([]float32, bool) {
	if x, found := s.cache.Get(s.key(text)); found {
		return clone(x.([]float32)), true
	}
	return nil, false
}

func (s *EmbeddingService) store(text string, v []float32) {
	s.cache.Set(s.key(text), clone(v), cache.DefaultExpiration)
}

func clone(v []float32) []float32 {
	return append([]float32(nil), v...)
}
