package services

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// scoredChunk is an intermediate hit referring to a chunk by store position.
type scoredChunk struct {
	index int
	score float64
	match domain.MatchType

	// semantic keeps the raw similarity for fusion.
	semantic float64
}

// cosineSimilarity returns dot(a,b)/(|a||b|).
// Vectors of different length or zero norm score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// queryTerms lowercases the query and splits it on whitespace, trimming
// punctuation from the ends of each term so "opzegtermijn?" matches
// "opzegtermijn".
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// keywordScore sums 2 + 0.5*occurrences for every term present in content.
// content must already be lowercased.
func keywordScore(content string, terms []string) float64 {
	var score float64
	for _, term := range terms {
		if n := strings.Count(content, term); n > 0 {
			score += 2 + 0.5*float64(n)
		}
	}
	return score
}

// rankDescending sorts hits by score, breaking ties by store position.
func rankDescending(hits []scoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].index < hits[j].index
	})
}

// topK truncates hits to at most k entries.
func topK(hits []scoredChunk, k int) []scoredChunk {
	if k >= 0 && len(hits) > k {
		return hits[:k]
	}
	return hits
}

// fuse merges semantic and keyword hits, deduplicating by chunk content.
//
// Semantic-only hits score similarity*semanticBoost. Keyword-only hits keep
// their normalised score. Hits found by both score
// max(similarity*semanticBoost, keyword*keywordBoost).
func fuse(semantic, keyword []scoredChunk, contents []string, cfg domain.RetrievalSettings) []scoredChunk {
	merged := make([]scoredChunk, 0, len(semantic)+len(keyword))
	byContent := make(map[string]int, len(semantic)+len(keyword))

	for _, h := range semantic {
		content := contents[h.index]
		if pos, ok := byContent[content]; ok {
			if h.semantic > merged[pos].semantic {
				merged[pos].semantic = h.semantic
				merged[pos].score = h.semantic * cfg.SemanticBoost
			}
			continue
		}
		byContent[content] = len(merged)
		merged = append(merged, scoredChunk{
			index:    h.index,
			score:    h.semantic * cfg.SemanticBoost,
			match:    domain.MatchSemantic,
			semantic: h.semantic,
		})
	}

	for _, h := range keyword {
		content := contents[h.index]
		pos, ok := byContent[content]
		if !ok {
			byContent[content] = len(merged)
			merged = append(merged, scoredChunk{index: h.index, score: h.score, match: domain.MatchKeyword})
			continue
		}

		existing := &merged[pos]
		switch existing.match {
		case domain.MatchKeyword:
			existing.score = math.Max(existing.score, h.score)
		default:
			// existing.score already holds semantic*SemanticBoost (or a prior fusion).
			existing.score = math.Max(existing.score, h.score*cfg.KeywordBoost)
			existing.match = domain.MatchHybrid
		}
	}

	rankDescending(merged)
	return merged
}
