package domain

import (
	"fmt"
	"strings"
	"time"
)

// Metadata keys written for every chunk.
const (
	MetaFilePath         = "file_path"
	MetaFilename         = "filename"
	MetaOriginalFilename = "original_filename"
	MetaFileType         = "file_type"
	MetaChunk            = "chunk"
	MetaUserID           = "user_id"
	MetaUploadDate       = "upload_date"
)

// referenceKeys are the metadata keys a document reference is matched against.
var referenceKeys = []string{MetaFilePath, MetaFilename, MetaOriginalFilename}

// Document is the extracted plain text of one uploaded source file.
// It is the unit the lifecycle manager adds, reprocesses and removes.
type Document struct {
	// Path is where the source file is stored.
	Path string

	// Filename is the stored file name (usually "<user>_<original>").
	Filename string

	// OriginalFilename is the name the file was uploaded with.
	OriginalFilename string

	// FileType is the lowercase extension without the dot ("txt", "md").
	FileType string

	// UserID identifies the owner.
	UserID string

	// Content is the full plain text before chunking.
	Content string

	// Metadata holds extra key-value pairs copied onto every chunk.
	Metadata map[string]any

	// UploadedAt is when the document was received.
	UploadedAt time.Time
}

// Reference returns the most specific name the document can be matched by.
func (d Document) Reference() string {
	switch {
	case d.OriginalFilename != "":
		return d.OriginalFilename
	case d.Filename != "":
		return d.Filename
	default:
		return d.Path
	}
}

// ChunkMetadata builds the metadata for the chunk at the given 1-based position.
// Extra metadata never overrides the document reference keys.
func (d Document) ChunkMetadata(position int) map[string]any {
	meta := make(map[string]any, len(d.Metadata)+7)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[MetaFilePath] = d.Path
	meta[MetaFilename] = d.Filename
	meta[MetaOriginalFilename] = d.OriginalFilename
	meta[MetaChunk] = position
	if d.FileType != "" {
		meta[MetaFileType] = d.FileType
	}
	if d.UserID != "" {
		meta[MetaUserID] = d.UserID
	}
	if !d.UploadedAt.IsZero() {
		meta[MetaUploadDate] = d.UploadedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

// Chunk is the atomic retrievable unit.
// Chunks are never updated in place; changing content means remove and re-add.
type Chunk struct {
	// ID is assigned at insertion and stable for the chunk's lifetime.
	ID string

	// Content is the trimmed, non-empty text.
	Content string

	// Metadata is opaque pass-through data, except for document filter matching.
	Metadata map[string]any

	// Embedding is the vector representation of Content.
	Embedding []float32
}

// MatchesReference reports whether metadata belongs to the document named by ref.
// A chunk matches when its file_path, filename or original_filename contains ref,
// compared case-insensitively. An empty ref matches nothing.
func MatchesReference(meta map[string]any, ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return false
	}
	for _, key := range referenceKeys {
		v, ok := meta[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if strings.Contains(strings.ToLower(s), ref) {
			return true
		}
	}
	return false
}

// DocumentInfo summarises the chunks indexed for one source document.
type DocumentInfo struct {
	// Reference is the name the document is listed under.
	Reference string

	// FilePath is the stored source file location.
	FilePath string

	// UserID identifies the owner.
	UserID string

	// UploadDate is the RFC 3339 upload timestamp, if recorded.
	UploadDate string

	// Chunks is the number of indexed chunks.
	Chunks int
}
