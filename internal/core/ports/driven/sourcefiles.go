package driven

import "context"

// SourceFiles gives access to stored source documents.
type SourceFiles interface {
	// Read returns the raw bytes of the file at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file is present at path.
	Exists(path string) bool

	// Remove deletes the file at path. A missing file is not an error.
	Remove(ctx context.Context, path string) error
}
