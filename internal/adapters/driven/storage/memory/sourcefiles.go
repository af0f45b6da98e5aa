package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure SourceFiles implements the interface.
var _ driven.SourceFiles = (*SourceFiles)(nil)

// SourceFiles is an in-memory implementation of driven.SourceFiles.
type SourceFiles struct {
	mu    sync.RWMutex
	files map[string][]byte

	// FailRemove, when set, is returned by Remove and the file is kept.
	FailRemove error
}

// NewSourceFiles creates an empty in-memory file set.
func NewSourceFiles() *SourceFiles {
	return &SourceFiles{files: make(map[string][]byte)}
}

// Put stores a file.
func (s *SourceFiles) Put(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
}

// Read returns the file contents.
func (s *SourceFiles) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// Exists reports whether path is stored.
func (s *SourceFiles) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok
}

// Remove deletes path. A missing file is not an error.
func (s *SourceFiles) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRemove != nil {
		return s.FailRemove
	}
	delete(s.files, path)
	return nil
}
