package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// errSourceFilesUnavailable is returned by file operations when no SourceFiles adapter is wired.
var errSourceFilesUnavailable = errors.New("source files unavailable")

// DocumentService is the lifecycle manager: it keeps the chunk store in
// step with source documents being added, reprocessed and deleted.
type DocumentService struct {
	store       *ChunkStore
	pipeline    driven.PostProcessorPipeline
	normalisers driven.NormaliserRegistry
	files       driven.SourceFiles
	now         func() time.Time
}

// NewDocumentService creates a new document service.
// normalisers and files are only needed for file-based operations and may be nil.
func NewDocumentService(
	store *ChunkStore,
	pipeline driven.PostProcessorPipeline,
	normalisers driven.NormaliserRegistry,
	files driven.SourceFiles,
) *DocumentService {
	return &DocumentService{
		store:       store,
		pipeline:    pipeline,
		normalisers: normalisers,
		files:       files,
		now:         time.Now,
	}
}

// AddDocument chunks the document text and stores every chunk.
// Returns the number of chunks added. A document with no text adds nothing.
func (s *DocumentService) AddDocument(ctx context.Context, doc domain.Document) (int, error) {
	ref := doc.Reference()
	if strings.TrimSpace(doc.Content) == "" {
		logger.Debug("Document %q has no text, nothing to index", ref)
		return 0, nil
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = s.now()
	}

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return 0, fmt.Errorf("chunk %s: %w", ref, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	contents := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	var ids []string
	for i, c := range chunks {
		contents[i] = c.Content
		metadatas[i] = c.Metadata
		if c.ID != "" {
			if ids == nil {
				ids = make([]string, len(chunks))
			}
			ids[i] = c.ID
		}
	}

	result, err := s.store.AddBatch(ctx, contents, metadatas, ids)
	if err != nil {
		return result.Added(), fmt.Errorf("index %s: %w", ref, err)
	}
	for _, skip := range result.Skipped {
		logger.Warn("Document %q: chunk %d skipped: %v", ref, skip.Index+1, skip.Reason)
	}
	if result.Added() == 0 {
		return 0, fmt.Errorf("index %s: no chunks stored: %w", ref, result.Skipped[0].Reason)
	}

	logger.Info("Indexed %q: %d chunks", ref, result.Added())
	return result.Added(), nil
}

// IndexFile reads a stored file, extracts its text and adds it.
func (s *DocumentService) IndexFile(ctx context.Context, path string, opts driving.IndexOptions) (int, error) {
	doc, err := s.loadFile(ctx, path, opts)
	if err != nil {
		return 0, err
	}
	return s.AddDocument(ctx, *doc)
}

// RemoveDocument removes every chunk matching ref.
func (s *DocumentService) RemoveDocument(ctx context.Context, ref string) (int, error) {
	removed, err := s.store.RemoveByDocument(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("remove %s: %w", ref, err)
	}
	logger.Info("Removed %d chunks for %q", removed, ref)
	return removed, nil
}

// ReprocessDocument replaces the chunks of oldRef with chunks of doc.
// An empty oldRef uses the document's own reference.
func (s *DocumentService) ReprocessDocument(ctx context.Context, oldRef string, doc domain.Document) (int, error) {
	if strings.TrimSpace(oldRef) == "" {
		oldRef = doc.Reference()
	}

	removed, err := s.RemoveDocument(ctx, oldRef)
	if err != nil {
		return 0, err
	}

	added, err := s.AddDocument(ctx, doc)
	if err != nil {
		logger.Error("Reprocess %q: %d old chunks removed but re-indexing failed: %v", oldRef, removed, err)
		return added, err
	}
	return added, nil
}

// ReprocessFile replaces the chunks of oldRef with a fresh index of the file at path.
// An empty oldRef uses path.
func (s *DocumentService) ReprocessFile(
	ctx context.Context, oldRef, path string, opts driving.IndexOptions,
) (int, error) {
	doc, err := s.loadFile(ctx, path, opts)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(oldRef) == "" {
		oldRef = path
	}
	return s.ReprocessDocument(ctx, oldRef, *doc)
}

// ReprocessAll re-indexes every document whose source file still exists.
// One failing document does not stop the others.
func (s *DocumentService) ReprocessAll(ctx context.Context) (*driving.ReprocessReport, error) {
	if s.files == nil {
		return nil, errSourceFilesUnavailable
	}

	report := &driving.ReprocessReport{Failed: make(map[string]error)}
	for _, info := range s.store.Documents() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if info.FilePath == "" || !s.files.Exists(info.FilePath) {
			logger.Warn("Reprocess: source for %q is missing", info.Reference)
			report.Missing = append(report.Missing, info.Reference)
			continue
		}

		opts := driving.IndexOptions{OriginalFilename: info.Reference, UserID: info.UserID}
		added, err := s.ReprocessFile(ctx, info.FilePath, info.FilePath, opts)
		if err != nil {
			report.Failed[info.Reference] = err
			continue
		}
		report.Documents++
		report.Chunks += added
	}

	logger.Info("Reprocessed %d documents (%d chunks), %d missing, %d failed",
		report.Documents, report.Chunks, len(report.Missing), len(report.Failed))
	return report, nil
}

// DeleteDocument removes the document from the index first and then deletes
// its source file, so a failure can only leave an orphaned file behind,
// never a dangling index entry. An empty ref uses sourcePath.
func (s *DocumentService) DeleteDocument(ctx context.Context, ref, sourcePath string) (int, error) {
	if strings.TrimSpace(ref) == "" {
		ref = sourcePath
	}

	removed, err := s.RemoveDocument(ctx, ref)
	if err != nil {
		return 0, err
	}
	if sourcePath == "" {
		return removed, nil
	}
	if s.files == nil {
		return removed, fmt.Errorf("%w: %s: %w", domain.ErrOrphanedSource, sourcePath, errSourceFilesUnavailable)
	}

	if err := s.files.Remove(ctx, sourcePath); err != nil {
		logger.Error("Source file %s orphaned after removing %d chunks for %q, manual cleanup needed: %v",
			sourcePath, removed, ref, err)
		return removed, fmt.Errorf("%w: %s: %w", domain.ErrOrphanedSource, sourcePath, err)
	}

	logger.Info("Deleted %q: %d chunks and source file %s", ref, removed, sourcePath)
	return removed, nil
}

// List returns the indexed documents.
func (s *DocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return s.store.Documents(), nil
}

// Stats returns index statistics.
func (s *DocumentService) Stats(_ context.Context) (domain.IndexStats, error) {
	return s.store.Stats(), nil
}

// loadFile reads and normalises the file at path into a Document.
func (s *DocumentService) loadFile(ctx context.Context, path string, opts driving.IndexOptions) (*domain.Document, error) {
	if s.files == nil {
		return nil, errSourceFilesUnavailable
	}
	if s.normalisers == nil {
		return nil, fmt.Errorf("%w: no normalisers registered", domain.ErrUnsupportedType)
	}

	data, err := s.files.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw := &domain.RawDocument{
		URI:      path,
		MIMEType: domain.MIMETypeForPath(path),
		Content:  data,
		Metadata: opts.Metadata,
	}
	result, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	doc := result.Document
	base := filepath.Base(path)
	doc.Path = path
	doc.Filename = base
	doc.OriginalFilename = opts.OriginalFilename
	if doc.OriginalFilename == "" {
		// Uploads are stored as "<user>_<name>".
		doc.OriginalFilename = base
		if opts.UserID != "" {
			doc.OriginalFilename = strings.TrimPrefix(base, opts.UserID+"_")
		}
	}
	doc.UserID = opts.UserID
	doc.FileType = strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), ".")
	if doc.Metadata == nil {
		doc.Metadata = opts.Metadata
	}
	return &doc, nil
}
