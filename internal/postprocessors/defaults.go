package postprocessors

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/dedupe"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("dedupe", buildDedupe)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//   - min_length (int): Fragments shorter than this are dropped (default: 10)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := lookupInt(cfg, "chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := lookupInt(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if minLength, ok := lookupInt(cfg, "min_length"); ok {
		opts = append(opts, chunker.WithMinLength(minLength))
	}

	return chunker.New(opts...), nil
}

// buildDedupe creates the duplicate-chunk filter. It takes no config.
func buildDedupe(_ map[string]any) (driven.PostProcessor, error) {
	return dedupe.New(), nil
}

// lookupInt reads a numeric option. TOML decodes integers as int64 and JSON
// as float64, so all three are accepted.
func lookupInt(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
