package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentService keeps the chunk store in step with source documents.
type DocumentService interface {
	// AddDocument chunks, embeds and stores a document's text.
	// Returns the number of chunks added.
	AddDocument(ctx context.Context, doc domain.Document) (int, error)

	// IndexFile extracts text from a stored file and adds it.
	IndexFile(ctx context.Context, path string, opts IndexOptions) (int, error)

	// RemoveDocument removes every chunk matching ref.
	// Returns the number removed; 0 when nothing matched.
	RemoveDocument(ctx context.Context, ref string) (int, error)

	// ReprocessDocument removes the chunks of oldRef and adds doc.
	ReprocessDocument(ctx context.Context, oldRef string, doc domain.Document) (int, error)

	// ReprocessFile removes the chunks of oldRef and re-indexes the file at path.
	ReprocessFile(ctx context.Context, oldRef, path string, opts IndexOptions) (int, error)

	// ReprocessAll re-indexes every indexed document whose source file still exists.
	ReprocessAll(ctx context.Context) (*ReprocessReport, error)

	// DeleteDocument removes the chunks of ref from the index and then the source file.
	// If the file cannot be removed the index change stands and the error wraps
	// domain.ErrOrphanedSource.
	DeleteDocument(ctx context.Context, ref, sourcePath string) (int, error)

	// List returns the indexed documents.
	List(ctx context.Context) ([]domain.DocumentInfo, error)

	// Stats returns index statistics.
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// IndexOptions carries upload details for a file being indexed.
type IndexOptions struct {
	// OriginalFilename is the name the file was uploaded with.
	// Defaults to the file's base name.
	OriginalFilename string

	// UserID identifies the owner.
	UserID string

	// Metadata holds extra key-value pairs copied onto every chunk.
	Metadata map[string]any
}

// ReprocessReport summarises a ReprocessAll run.
type ReprocessReport struct {
	// Documents is the number of documents re-indexed.
	Documents int

	// Chunks is the number of chunks added.
	Chunks int

	// Missing lists references whose source file no longer exists.
	Missing []string

	// Failed maps references to the error that stopped them.
	Failed map[string]error
}
