package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
// Saved snapshots are deep-copied so later caller mutations do not leak in.
type ArtifactStore struct {
	mu    sync.RWMutex
	snap  domain.Snapshot
	saves int

	// FailSave, when set, is returned by Save instead of storing.
	FailSave error
	// FailLoad, when set, is returned by Load.
	FailLoad error
}

// NewArtifactStore creates an empty in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{}
}

// Load returns a copy of the stored snapshot.
func (s *ArtifactStore) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailLoad != nil {
		return domain.Snapshot{}, s.FailLoad
	}
	return copySnapshot(s.snap), nil
}

// Save stores a copy of snap.
func (s *ArtifactStore) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.snap = copySnapshot(snap)
	s.saves++
	return nil
}

// SetFailSave sets or clears the error returned by Save.
func (s *ArtifactStore) SetFailSave(err error) {
	s.mu.Lock()
	s.FailSave = err
	s.mu.Unlock()
}

// Saves returns how many snapshots have been stored.
func (s *ArtifactStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Location returns a placeholder location.
func (s *ArtifactStore) Location() string {
	return ":memory:"
}

// Close is a no-op.
func (s *ArtifactStore) Close() error {
	return nil
}

func copySnapshot(in domain.Snapshot) domain.Snapshot {
	out := domain.Snapshot{
		Contents:   append([]string(nil), in.Contents...),
		IDs:        append([]string(nil), in.IDs...),
		Metadatas:  make([]map[string]any, len(in.Metadatas)),
		Embeddings: make([][]float32, len(in.Embeddings)),
	}
	for i, m := range in.Metadatas {
		cp := make(map[string]any, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out.Metadatas[i] = cp
	}
	for i, e := range in.Embeddings {
		out.Embeddings[i] = append([]float32(nil), e...)
	}
	return out
}
