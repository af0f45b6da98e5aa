package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure SourceFiles implements the interface.
var _ driven.SourceFiles = (*SourceFiles)(nil)

// SourceFiles reads and deletes uploaded source documents on local disk.
// Relative paths are resolved against the root directory.
type SourceFiles struct {
	root string
}

// NewSourceFiles creates a SourceFiles rooted at root.
// An empty root resolves relative paths against the working directory.
func NewSourceFiles(root string) *SourceFiles {
	return &SourceFiles{root: root}
}

// Read returns the contents of the file at path.
func (f *SourceFiles) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.resolve(path))
}

// Exists reports whether a regular file is present at path.
func (f *SourceFiles) Exists(path string) bool {
	info, err := os.Stat(f.resolve(path))
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file at path. A missing file is not an error.
func (f *SourceFiles) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.resolve(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove source file: %w", err)
	}
	return nil
}

func (f *SourceFiles) resolve(path string) string {
	if f.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.root, path)
}
