// Package dedupe drops repeated chunk texts within one document.
package dedupe

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor keeps the first chunk for each distinct whitespace-normalised text
// and renumbers the surviving chunks so positions stay consecutive.
type Processor struct{}

// New creates a dedupe processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process filters chunks produced by an earlier processor.
func (p *Processor) Process(ctx context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(chunks) < 2 {
		return chunks, nil
	}

	seen := make(map[string]struct{}, len(chunks))
	kept := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := strings.Join(strings.Fields(c.Content), " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}

	if len(kept) == len(chunks) {
		return chunks, nil
	}
	for i := range kept {
		if _, ok := kept[i].Metadata[domain.MetaChunk]; ok {
			meta := make(map[string]any, len(kept[i].Metadata))
			for k, v := range kept[i].Metadata {
				meta[k] = v
			}
			meta[domain.MetaChunk] = i + 1
			kept[i].Metadata = meta
		}
	}
	return kept, nil
}
