package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMIMETypeForPath tests MIME detection from extensions
func TestMIMETypeForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"notes.txt", "text/plain"},
		{"README.md", "text/markdown"},
		{"Guide.MARKDOWN", "text/markdown"},
		{"page.html", "text/html"},
		{"blob", "application/octet-stream"},
		{"archive.unknownext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, MIMETypeForPath(tt.path))
		})
	}
}

// TestChangeType_String tests change type names
func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "updated", ChangeUpdated.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "unknown", ChangeType(42).String())
}

// TestRawDocument_Fields tests RawDocument structure fields
func TestRawDocument_Fields(t *testing.T) {
	raw := RawDocument{
		URI:      "/uploads/u1_notes.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Notes"),
		Metadata: map[string]any{MetaOriginalFilename: "notes.md"},
	}

	assert.Equal(t, "/uploads/u1_notes.md", raw.URI)
	assert.Equal(t, []byte("# Notes"), raw.Content)
	assert.Equal(t, "notes.md", raw.Metadata[MetaOriginalFilename])
}
