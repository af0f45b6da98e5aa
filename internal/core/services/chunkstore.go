package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ChunkStore owns every chunk of the installation: four aligned sequences
// (contents, metadata, ids, embeddings) backed by a persisted artifact.
//
// State is an immutable snapshot swapped on each successful mutation.
// Mutations are serialised by writeMu for their whole read-modify-persist
// sequence and only publish the new snapshot after the artifact has been
// written, so readers see either the old or the new state, and a failed
// write leaves both memory and artifact unchanged.
type ChunkStore struct {
	artifacts driven.ArtifactStore
	embedder  driven.EmbeddingService
	newID     func() string

	writeMu sync.Mutex

	mu     sync.RWMutex
	state  *domain.Snapshot
	closed bool
}

// ChunkStoreOption configures a ChunkStore.
type ChunkStoreOption func(*ChunkStore)

// WithIDGenerator replaces the uuid generator used for new chunk ids.
func WithIDGenerator(gen func() string) ChunkStoreOption {
	return func(s *ChunkStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewChunkStore creates a store and eagerly loads its artifact.
// A missing artifact yields an empty store. A corrupt or unreadable artifact
// is logged and also yields an empty store; the next successful mutation
// replaces it.
func NewChunkStore(
	ctx context.Context,
	artifacts driven.ArtifactStore,
	embedder driven.EmbeddingService,
	opts ...ChunkStoreOption,
) *ChunkStore {
	s := &ChunkStore{
		artifacts: artifacts,
		embedder:  embedder,
		newID:     uuid.NewString,
		state:     &domain.Snapshot{},
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := artifacts.Load(ctx)
	switch {
	case err != nil:
		logger.Warn("Chunk store artifact %s could not be loaded, starting empty: %v", artifacts.Location(), err)
	default:
		if verr := snap.Validate(); verr != nil {
			logger.Warn("Chunk store artifact %s is inconsistent, starting empty: %v", artifacts.Location(), verr)
		} else {
			s.state = &snap
			logger.Debug("Loaded %d chunks from %s", snap.Len(), artifacts.Location())
		}
	}

	return s
}

// Add embeds content and appends it as a new chunk.
// Whitespace-only content is rejected with domain.ErrEmptyContent.
// Returns the new chunk id.
func (s *ChunkStore) Add(ctx context.Context, content string, metadata map[string]any) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", domain.ErrEmptyContent
	}
	if s.embedder == nil {
		return "", domain.ErrEmbeddingUnavailable
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embed chunk: %w", err)
	}

	added, skipped, err := s.commitAppend(ctx, []pendingChunk{{content: content, metadata: metadata, embedding: vec}})
	if err != nil {
		return "", err
	}
	if len(skipped) > 0 {
		return "", skipped[0].Reason
	}
	return added[0], nil
}

// AddBatch embeds and appends many chunks with a single persisted update.
//
// metadatas and ids may be nil; otherwise they must match contents in length.
// A blank id asks the store to generate one. Items with empty content, a
// malformed or duplicate id, a failed embedding or a mismatched dimension are
// skipped and reported; the rest are still added.
func (s *ChunkStore) AddBatch(
	ctx context.Context, contents []string, metadatas []map[string]any, ids []string,
) (domain.BatchResult, error) {
	var result domain.BatchResult

	if metadatas != nil && len(metadatas) != len(contents) {
		return result, fmt.Errorf("%w: %d metadatas for %d contents", domain.ErrInvalidInput, len(metadatas), len(contents))
	}
	if ids != nil && len(ids) != len(contents) {
		return result, fmt.Errorf("%w: %d ids for %d contents", domain.ErrInvalidInput, len(ids), len(contents))
	}
	if len(contents) == 0 {
		return result, nil
	}
	if s.embedder == nil {
		return result, domain.ErrEmbeddingUnavailable
	}

	pending := make([]pendingChunk, 0, len(contents))
	for i, raw := range contents {
		content := strings.TrimSpace(raw)
		if content == "" {
			result.Skipped = append(result.Skipped, domain.SkippedItem{Index: i, Reason: domain.ErrEmptyContent})
			continue
		}
		p := pendingChunk{index: i, content: content}
		if metadatas != nil {
			p.metadata = metadatas[i]
		}
		if ids != nil {
			p.id = ids[i]
			if p.id != strings.TrimSpace(p.id) {
				result.Skipped = append(result.Skipped, domain.SkippedItem{
					Index:  i,
					Reason: fmt.Errorf("%w: malformed id %q", domain.ErrInvalidInput, p.id),
				})
				continue
			}
		}
		pending = append(pending, p)
	}

	pending, embedSkipped := s.embedPending(ctx, pending)
	result.Skipped = append(result.Skipped, embedSkipped...)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	added, skipped, err := s.commitAppend(ctx, pending)
	result.Skipped = append(result.Skipped, skipped...)
	if err != nil {
		return result, err
	}
	result.IDs = added

	logger.Debug("Batch add: %d added, %d skipped", result.Added(), len(result.Skipped))
	return result, nil
}

// RemoveByIDs removes the chunks with the given ids. Unknown ids are ignored.
// Returns the number removed.
func (s *ChunkStore) RemoveByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return s.commitRemove(ctx, func(snap *domain.Snapshot, i int) bool {
		_, ok := set[snap.IDs[i]]
		return ok
	})
}

// RemoveByDocument removes every chunk whose metadata matches ref
// (see domain.MatchesReference) in a single persisted update.
// Returns 0 when nothing matches. An empty ref is rejected.
func (s *ChunkStore) RemoveByDocument(ctx context.Context, ref string) (int, error) {
	if strings.TrimSpace(ref) == "" {
		return 0, fmt.Errorf("%w: empty document reference", domain.ErrInvalidInput)
	}

	return s.commitRemove(ctx, func(snap *domain.Snapshot, i int) bool {
		return domain.MatchesReference(snap.Metadatas[i], ref)
	})
}

// Persist writes the current state to the artifact.
func (s *ChunkStore) Persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return domain.ErrStoreClosed
	}
	return s.persist(ctx, s.view())
}

// Reload replaces the in-memory state with the artifact's contents.
// On error the current state is kept.
func (s *ChunkStore) Reload(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return domain.ErrStoreClosed
	}
	snap, err := s.artifacts.Load(ctx)
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	s.publish(&snap)
	return nil
}

// Len returns the number of chunks.
func (s *ChunkStore) Len() int {
	return s.view().Len()
}

// Snapshot returns a copy of the current sequences.
// Metadata maps and embedding vectors are shared and must not be modified.
func (s *ChunkStore) Snapshot() domain.Snapshot {
	cur := s.view()
	return domain.Snapshot{
		Contents:   append([]string(nil), cur.Contents...),
		Metadatas:  append([]map[string]any(nil), cur.Metadatas...),
		IDs:        append([]string(nil), cur.IDs...),
		Embeddings: append([][]float32(nil), cur.Embeddings...),
	}
}

// Documents lists the indexed source documents in first-insertion order.
// Chunks are grouped by source file path, or by reference when a chunk has
// no path, so uploads sharing an original filename stay separate.
func (s *ChunkStore) Documents() []domain.DocumentInfo {
	cur := s.view()

	index := make(map[string]int)
	var docs []domain.DocumentInfo
	for i := 0; i < cur.Len(); i++ {
		meta := cur.Metadatas[i]
		ref := domain.SearchResult{Metadata: meta}.Reference()
		if ref == "" {
			ref = "(unknown)"
		}
		path := metaString(meta, domain.MetaFilePath)
		key := "path:" + path
		if path == "" {
			key = "ref:" + ref
		}
		pos, ok := index[key]
		if !ok {
			pos = len(docs)
			index[key] = pos
			docs = append(docs, domain.DocumentInfo{
				Reference:  ref,
				FilePath:   path,
				UserID:     metaString(meta, domain.MetaUserID),
				UploadDate: metaString(meta, domain.MetaUploadDate),
			})
		}
		docs[pos].Chunks++
	}
	return docs
}

// Stats summarises the store.
func (s *ChunkStore) Stats() domain.IndexStats {
	cur := s.view()
	return domain.IndexStats{
		Chunks:     cur.Len(),
		Documents:  len(s.Documents()),
		Dimensions: cur.Dimensions(),
		Location:   s.artifacts.Location(),
	}
}

// Close releases the artifact store. Further mutations fail with domain.ErrStoreClosed.
func (s *ChunkStore) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.artifacts.Close()
}

// pendingChunk is a validated chunk awaiting commit.
type pendingChunk struct {
	index     int
	id        string
	content   string
	metadata  map[string]any
	embedding []float32
}

// embedPending fills in embeddings, batching when possible.
// When the batch call fails each item is embedded on its own so one bad
// item does not sink the rest.
func (s *ChunkStore) embedPending(ctx context.Context, pending []pendingChunk) ([]pendingChunk, []domain.SkippedItem) {
	if len(pending) == 0 {
		return nil, nil
	}

	texts := make([]string, len(pending))
	for i, p := range pending {
		texts[i] = p.content
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vecs) == len(pending) {
		for i := range pending {
			pending[i].embedding = vecs[i]
		}
		return pending, nil
	}
	if err == nil {
		err = fmt.Errorf("embedding service returned %d vectors for %d texts", len(vecs), len(pending))
	}
	logger.Warn("Batch embedding failed, embedding items individually: %v", err)

	var skipped []domain.SkippedItem
	kept := pending[:0]
	for _, p := range pending {
		if ctx.Err() != nil {
			skipped = append(skipped, domain.SkippedItem{Index: p.index, Reason: ctx.Err()})
			continue
		}
		vec, err := s.embedder.Embed(ctx, p.content)
		if err != nil {
			logger.Warn("Embedding item %d failed: %v", p.index, err)
			skipped = append(skipped, domain.SkippedItem{Index: p.index, Reason: fmt.Errorf("embed: %w", err)})
			continue
		}
		p.embedding = vec
		kept = append(kept, p)
	}
	return kept, skipped
}

// commitAppend assigns ids, checks dimensions and appends the accepted items.
func (s *ChunkStore) commitAppend(ctx context.Context, items []pendingChunk) ([]string, []domain.SkippedItem, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return nil, nil, domain.ErrStoreClosed
	}

	cur := s.view()
	taken := make(map[string]struct{}, cur.Len()+len(items))
	for _, id := range cur.IDs {
		taken[id] = struct{}{}
	}
	dims := cur.Dimensions()

	var skipped []domain.SkippedItem
	accepted := make([]pendingChunk, 0, len(items))
	for _, item := range items {
		if item.id == "" {
			item.id = s.freshID(taken)
		} else if _, dup := taken[item.id]; dup {
			skipped = append(skipped, domain.SkippedItem{
				Index:  item.index,
				Reason: fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidInput, item.id),
			})
			continue
		}
		if len(item.embedding) == 0 || (dims > 0 && len(item.embedding) != dims) {
			skipped = append(skipped, domain.SkippedItem{
				Index:  item.index,
				Reason: fmt.Errorf("%w: got %d, store has %d", domain.ErrDimensionMismatch, len(item.embedding), dims),
			})
			continue
		}
		if dims == 0 {
			dims = len(item.embedding)
		}
		taken[item.id] = struct{}{}
		accepted = append(accepted, item)
	}

	if len(accepted) == 0 {
		return nil, skipped, nil
	}

	n := cur.Len() + len(accepted)
	next := &domain.Snapshot{
		Contents:   make([]string, 0, n),
		Metadatas:  make([]map[string]any, 0, n),
		IDs:        make([]string, 0, n),
		Embeddings: make([][]float32, 0, n),
	}
	next.Contents = append(next.Contents, cur.Contents...)
	next.Metadatas = append(next.Metadatas, cur.Metadatas...)
	next.IDs = append(next.IDs, cur.IDs...)
	next.Embeddings = append(next.Embeddings, cur.Embeddings...)

	added := make([]string, 0, len(accepted))
	for _, item := range accepted {
		next.Contents = append(next.Contents, item.content)
		next.Metadatas = append(next.Metadatas, cloneMetadata(item.metadata))
		next.IDs = append(next.IDs, item.id)
		next.Embeddings = append(next.Embeddings, item.embedding)
		added = append(added, item.id)
	}

	if err := s.persist(ctx, next); err != nil {
		return nil, skipped, err
	}
	s.publish(next)

	logger.Debug("Chunk store: appended %d chunks (total %d)", len(added), next.Len())
	return added, skipped, nil
}

// commitRemove drops every chunk for which match returns true.
func (s *ChunkStore) commitRemove(ctx context.Context, match func(*domain.Snapshot, int) bool) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return 0, domain.ErrStoreClosed
	}

	cur := s.view()
	next := &domain.Snapshot{}
	removed := 0
	for i := 0; i < cur.Len(); i++ {
		if match(cur, i) {
			removed++
			continue
		}
		next.Contents = append(next.Contents, cur.Contents[i])
		next.Metadatas = append(next.Metadatas, cur.Metadatas[i])
		next.IDs = append(next.IDs, cur.IDs[i])
		next.Embeddings = append(next.Embeddings, cur.Embeddings[i])
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, next); err != nil {
		return 0, err
	}
	s.publish(next)

	logger.Debug("Chunk store: removed %d chunks (total %d)", removed, next.Len())
	return removed, nil
}

// persist writes snap to the artifact. Callers must hold writeMu.
func (s *ChunkStore) persist(ctx context.Context, snap *domain.Snapshot) error {
	if err := s.artifacts.Save(ctx, *snap); err != nil {
		logger.Error("Persisting chunk store to %s failed: %v", s.artifacts.Location(), err)
		if errors.Is(err, domain.ErrPersistence) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// view returns the current snapshot. The snapshot must not be modified.
func (s *ChunkStore) view() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// publish swaps in a new snapshot.
func (s *ChunkStore) publish(snap *domain.Snapshot) {
	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
}

func (s *ChunkStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// freshID returns a generated id not present in taken.
func (s *ChunkStore) freshID(taken map[string]struct{}) string {
	for {
		id := s.newID()
		if _, dup := taken[id]; !dup && id != "" {
			return id
		}
	}
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}
