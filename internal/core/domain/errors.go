package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyContent indicates chunk content that is empty after trimming.
	ErrEmptyContent = fmt.Errorf("%w: empty content", ErrInvalidInput)

	// ErrUnsupportedType indicates a document type with no text extractor.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates a vector whose length differs from the store's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Store Errors.

	// ErrCorruptArtifact indicates a persisted artifact that cannot be decoded
	// or whose sequences are not aligned.
	ErrCorruptArtifact = errors.New("corrupt artifact")

	// ErrPersistence indicates the artifact could not be written.
	// The in-memory store is left unchanged when this is returned from a mutation.
	ErrPersistence = errors.New("persistence failed")

	// ErrStoreClosed indicates the chunk store has been closed.
	ErrStoreClosed = errors.New("store closed")

	// Lifecycle Errors.

	// ErrOrphanedSource indicates the index was updated but the source file
	// could not be removed afterwards. The file needs manual cleanup.
	ErrOrphanedSource = errors.New("source file orphaned")
)
