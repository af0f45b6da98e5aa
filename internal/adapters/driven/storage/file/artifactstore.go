package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/metadata"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultArtifactName is the artifact file name inside the store directory.
const DefaultArtifactName = "vectorstore.json"

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// artifact is the on-disk layout.
type artifact struct {
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
}

// ArtifactStore is a JSON file implementation of driven.ArtifactStore.
type ArtifactStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewArtifactStore creates a store for the artifact at path.
// If path is a directory (or has no extension), DefaultArtifactName is
// appended. The parent directory is created if needed.
func NewArtifactStore(path string) (*ArtifactStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".docqa", "data")
	}
	if filepath.Ext(path) == "" {
		path = filepath.Join(path, DefaultArtifactName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	return &ArtifactStore{path: path, now: time.Now}, nil
}

// Load reads the artifact. A missing file yields an empty snapshot.
// A file that cannot be decoded, or whose arrays are not aligned, is moved
// aside to "<name>.corrupt-<unix>" and an error wrapping
// domain.ErrCorruptArtifact is returned.
func (s *ArtifactStore) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Snapshot{}, nil
		}
		return domain.Snapshot{}, fmt.Errorf("read artifact: %w", err)
	}

	snap, decodeErr := decode(data)
	if decodeErr == nil {
		decodeErr = snap.Validate()
	}
	if decodeErr != nil {
		moved := s.quarantine()
		if moved != "" {
			logger.Warn("Corrupt artifact moved to %s", moved)
		}
		if errors.Is(decodeErr, domain.ErrCorruptArtifact) {
			return domain.Snapshot{}, decodeErr
		}
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrCorruptArtifact, decodeErr)
	}
	return snap, nil
}

// Save writes snap to a temporary file and renames it over the artifact.
func (s *ArtifactStore) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(artifact{
		Documents:  nonNil(snap.Contents),
		Metadatas:  nonNilMaps(snap.Metadatas),
		IDs:        nonNil(snap.IDs),
		Embeddings: nonNilVectors(snap.Embeddings),
	})
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Location returns the artifact path.
func (s *ArtifactStore) Location() string {
	return s.path
}

// Close is a no-op; the artifact is written on every Save.
func (s *ArtifactStore) Close() error {
	return nil
}

// quarantine renames the artifact out of the way and returns the new name,
// or "" if the rename failed.
func (s *ArtifactStore) quarantine() string {
	target := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.Rename(s.path, target); err != nil {
		logger.Warn("Could not move corrupt artifact %s aside: %v", s.path, err)
		return ""
	}
	return target
}

func decode(data []byte) (domain.Snapshot, error) {
	var a artifact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&a); err != nil {
		return domain.Snapshot{}, err
	}

	for i := range a.Metadatas {
		a.Metadatas[i] = metadata.Normalize(a.Metadatas[i])
	}
	return domain.Snapshot{
		Contents:   a.Documents,
		Metadatas:  a.Metadatas,
		IDs:        a.IDs,
		Embeddings: a.Embeddings,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMaps(s []map[string]any) []map[string]any {
	if s == nil {
		return []map[string]any{}
	}
	return s
}

func nonNilVectors(s [][]float32) [][]float32 {
	if s == nil {
		return [][]float32{}
	}
	return s
}
