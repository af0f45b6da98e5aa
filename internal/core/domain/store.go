package domain

import (
	"fmt"
)

// Snapshot is the full state of the chunk store as four aligned sequences.
// Position i in every sequence describes the same chunk.
type Snapshot struct {
	Contents   []string
	Metadatas  []map[string]any
	IDs        []string
	Embeddings [][]float32
}

// Len returns the number of chunks.
func (s Snapshot) Len() int {
	return len(s.IDs)
}

// Dimensions returns the embedding length, or 0 for an empty snapshot.
func (s Snapshot) Dimensions() int {
	if len(s.Embeddings) == 0 {
		return 0
	}
	return len(s.Embeddings[0])
}

// Chunk returns the chunk at position i.
func (s Snapshot) Chunk(i int) Chunk {
	return Chunk{
		ID:        s.IDs[i],
		Content:   s.Contents[i],
		Metadata:  s.Metadatas[i],
		Embedding: s.Embeddings[i],
	}
}

// Validate checks the alignment and consistency invariants.
// Loaded artifacts that fail validation are treated as corrupt.
func (s Snapshot) Validate() error {
	n := len(s.IDs)
	if len(s.Contents) != n || len(s.Metadatas) != n || len(s.Embeddings) != n {
		return fmt.Errorf("%w: sequence lengths differ (contents=%d metadatas=%d ids=%d embeddings=%d)",
			ErrCorruptArtifact, len(s.Contents), len(s.Metadatas), n, len(s.Embeddings))
	}

	dims := s.Dimensions()
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		if s.IDs[i] == "" {
			return fmt.Errorf("%w: empty id at position %d", ErrCorruptArtifact, i)
		}
		if _, dup := seen[s.IDs[i]]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrCorruptArtifact, s.IDs[i])
		}
		seen[s.IDs[i]] = struct{}{}
		if len(s.Embeddings[i]) != dims {
			return fmt.Errorf("%w: position %d has %d dimensions, expected %d",
				ErrCorruptArtifact, i, len(s.Embeddings[i]), dims)
		}
	}
	return nil
}

// SkippedItem records why one batch item was not added.
type SkippedItem struct {
	// Index is the item's position in the batch.
	Index int

	// Reason is the validation or encoding error.
	Reason error
}

// BatchResult reports the outcome of a bulk add.
// Batches have partial-failure semantics: skipped items do not abort the rest.
type BatchResult struct {
	// IDs are the ids of the added chunks, in batch order.
	IDs []string

	// Skipped lists the items that were rejected.
	Skipped []SkippedItem
}

// Added returns the number of chunks added.
func (r BatchResult) Added() int {
	return len(r.IDs)
}

// IndexStats summarises the chunk store.
type IndexStats struct {
	// Chunks is the total number of chunks.
	Chunks int

	// Documents is the number of distinct source documents.
	Documents int

	// Dimensions is the embedding length, 0 when empty.
	Dimensions int

	// Location describes where the artifact is persisted.
	Location string
}
