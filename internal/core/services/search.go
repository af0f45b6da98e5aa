package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService provides hybrid retrieval over the chunk store.
type SearchService struct {
	store            *ChunkStore
	embeddingService driven.EmbeddingService
	settings         domain.RetrievalSettings
	defaultMode      domain.SearchMode
}

// NewSearchService creates a new search service.
// The embeddingService parameter is optional (can be nil); without it
// hybrid queries fall back to keyword scoring.
func NewSearchService(
	store *ChunkStore,
	embeddingService driven.EmbeddingService,
	settings domain.RetrievalSettings,
) *SearchService {
	defaults := domain.DefaultRetrievalSettings()
	if settings == (domain.RetrievalSettings{}) {
		settings = defaults
	}
	if settings.KeywordDivisor <= 0 {
		settings.KeywordDivisor = defaults.KeywordDivisor
	}
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = defaults.DefaultLimit
	}

	return &SearchService{
		store:            store,
		embeddingService: embeddingService,
		settings:         settings,
		defaultMode:      domain.SearchModeHybrid,
	}
}

// SetDefaultMode sets the mode used when a query does not name one.
func (s *SearchService) SetDefaultMode(mode domain.SearchMode) {
	if mode.IsValid() {
		s.defaultMode = mode
	}
}

// Search ranks chunks against query.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.settings.DefaultLimit
	}

	mode, err := s.effectiveMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	logger.Info("Effective search mode: %s", mode.Description())

	// All passes read one snapshot so a concurrent mutation cannot tear results.
	snap := s.store.view()
	if snap.Len() == 0 {
		logger.Debug("Empty store, returning no results")
		return []domain.SearchResult{}, nil
	}

	candidates := s.candidates(snap, opts.DocumentFilter)
	logger.Debug("Limit: %d, candidates: %d of %d", limit, len(candidates), snap.Len())
	if len(candidates) == 0 {
		return []domain.SearchResult{}, nil
	}

	var semantic, keyword []scoredChunk

	switch mode {
	case domain.SearchModeKeyword:
		keyword = s.keywordPass(snap, candidates, query, limit)

	case domain.SearchModeSemantic:
		semantic, err = s.semanticPass(ctx, snap, candidates, query, limit)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

	default:
		semantic, keyword, err = s.hybridPasses(ctx, snap, candidates, query, limit)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}

	logger.Debug("Pass results: %d semantic, %d keyword", len(semantic), len(keyword))

	fused := topK(fuse(semantic, keyword, snap.Contents, s.settings), limit)
	results := s.hydrateResults(snap, fused, query)
	logger.Info("Final results: %d", len(results))

	return results, nil
}

// effectiveMode resolves the requested mode against available services.
// Hybrid degrades to keyword when no embedding service is configured.
func (s *SearchService) effectiveMode(requested domain.SearchMode) (domain.SearchMode, error) {
	mode := requested
	if mode == "" {
		mode = s.defaultMode
	}
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, mode)
	}

	if mode.RequiresEmbedding() && s.embeddingService == nil {
		if mode == domain.SearchModeSemantic {
			return "", domain.ErrEmbeddingUnavailable
		}
		logger.Warn("Embedding service unavailable, using keyword search only")
		return domain.SearchModeKeyword, nil
	}
	return mode, nil
}

// candidates returns the store positions that pass the document filter.
func (s *SearchService) candidates(snap *domain.Snapshot, filter string) []int {
	filter = strings.TrimSpace(filter)
	out := make([]int, 0, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		if filter != "" && !domain.MatchesReference(snap.Metadatas[i], filter) {
			continue
		}
		out = append(out, i)
	}
	if filter != "" {
		logger.Debug("Document filter %q: %d chunks", filter, len(out))
	}
	return out
}

// hybridPasses runs the semantic and keyword passes concurrently.
// A failed semantic pass degrades to keyword results.
func (s *SearchService) hybridPasses(
	ctx context.Context, snap *domain.Snapshot, candidates []int, query string, limit int,
) ([]scoredChunk, []scoredChunk, error) {
	logger.Debug("Hybrid search: running semantic and keyword passes in parallel")

	var semantic, keyword []scoredChunk
	var semanticErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		semantic, semanticErr = s.semanticPass(gctx, snap, candidates, query, limit)
		if errors.Is(semanticErr, context.Canceled) || errors.Is(semanticErr, context.DeadlineExceeded) {
			return semanticErr
		}
		return nil
	})
	g.Go(func() error {
		keyword = s.keywordPass(snap, candidates, query, limit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if semanticErr != nil {
		logger.Warn("Hybrid search: semantic pass failed, using keyword results only: %v", semanticErr)
		return nil, keyword, nil
	}
	return semantic, keyword, nil
}

// semanticPass scores candidates by cosine similarity to the query embedding,
// keeping those above the similarity threshold.
func (s *SearchService) semanticPass(
	ctx context.Context, snap *domain.Snapshot, candidates []int, query string, limit int,
) ([]scoredChunk, error) {
	if s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}
	if dims := snap.Dimensions(); dims != len(vec) {
		return nil, fmt.Errorf("%w: query has %d, store has %d", domain.ErrDimensionMismatch, len(vec), dims)
	}

	hits := make([]scoredChunk, 0, len(candidates))
	for _, i := range candidates {
		sim := cosineSimilarity(vec, snap.Embeddings[i])
		if sim > s.settings.SemanticThreshold {
			hits = append(hits, scoredChunk{index: i, score: sim, semantic: sim, match: domain.MatchSemantic})
		}
	}

	rankDescending(hits)
	return topK(hits, limit), nil
}

// keywordPass scores candidates by query term occurrences.
func (s *SearchService) keywordPass(snap *domain.Snapshot, candidates []int, query string, limit int) []scoredChunk {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	hits := make([]scoredChunk, 0)
	for _, i := range candidates {
		raw := keywordScore(strings.ToLower(snap.Contents[i]), terms)
		if raw <= 0 {
			continue
		}
		score := raw / s.settings.KeywordDivisor
		if score > s.settings.KeywordCap {
			score = s.settings.KeywordCap
		}
		hits = append(hits, scoredChunk{index: i, score: score, match: domain.MatchKeyword})
	}

	rankDescending(hits)
	return topK(hits, limit)
}

// hydrateResults converts scored positions into SearchResult values.
func (s *SearchService) hydrateResults(
	snap *domain.Snapshot, hits []scoredChunk, query string,
) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		content := snap.Contents[h.index]
		results = append(results, domain.SearchResult{
			ChunkID:    snap.IDs[h.index],
			Content:    content,
			Metadata:   cloneMetadata(snap.Metadatas[h.index]),
			Relevance:  h.score,
			MatchType:  h.match,
			Highlights: generateHighlights(content, query),
		})
	}
	return results
}

// generateHighlights creates text snippets with matched terms.
func generateHighlights(content, query string) []string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var highlights []string

	for _, sentence := range splitSentences(content) {
		sentenceLower := strings.ToLower(sentence)
		for _, term := range terms {
			if strings.Contains(sentenceLower, term) {
				highlights = append(highlights, truncateRunes(sentence, 200))
				break
			}
		}

		if len(highlights) >= 3 {
			break // Limit to 3 highlights
		}
	}

	return highlights
}

// splitSentences splits content into sentences.
func splitSentences(content string) []string {
	// Simple sentence splitting by common terminators
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	// Don't forget the last sentence
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
