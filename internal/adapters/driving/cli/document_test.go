package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func TestIndexCmd_MultipleFiles(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.chunks = 4

	out, err := run("index", "a.txt", "b.md", "-u", "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.md"}, ts.docs.indexed)
	for _, opts := range ts.docs.indexOpts {
		assert.Equal(t, "u1", opts.UserID)
		assert.Empty(t, opts.OriginalFilename)
	}
	assert.Contains(t, out, "Indexed a.txt: 4 chunks")
	assert.Contains(t, out, "Indexed b.md: 4 chunks")
}

func TestIndexCmd_OriginalName(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("index", "/uploads/u1_x.txt", "--original-name", "lease.txt")

	require.NoError(t, err)
	require.Len(t, ts.docs.indexOpts, 1)
	assert.Equal(t, "lease.txt", ts.docs.indexOpts[0].OriginalFilename)
}

func TestIndexCmd_OriginalNameRequiresSingleFile(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("index", "a.txt", "b.txt", "--original-name", "x.txt")

	assert.EqualError(t, err, "--original-name can only be used with a single file")
	assert.Empty(t, ts.docs.indexed)
}

func TestIndexCmd_ContinuesAfterFailure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.failPaths = map[string]error{"bad.pdf": domain.ErrUnsupportedType}

	out, err := run("index", "bad.pdf", "good.txt")

	assert.EqualError(t, err, "1 of 2 files failed")
	assert.Equal(t, []string{"good.txt"}, ts.docs.indexed)
	assert.Contains(t, out, "Failed to index bad.pdf")
}

func TestRemoveCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.chunks = 3

	out, err := run("remove", "lease.txt")

	require.NoError(t, err)
	assert.Equal(t, []string{"lease.txt"}, ts.docs.removed)
	assert.Contains(t, out, `Removed 3 chunks for "lease.txt"`)
}

func TestRemoveCmd_NothingFound(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("remove", "ghost")

	require.NoError(t, err)
	assert.Contains(t, out, `No chunks found for "ghost"`)
}

func TestRemoveCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.err = domain.ErrPersistence

	_, err := run("remove", "lease.txt")

	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestDeleteCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.chunks = 2

	out, err := run("delete", "/uploads/a.txt", "--ref", "a.txt")

	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"a.txt", "/uploads/a.txt"}}, ts.docs.deleted)
	assert.Contains(t, out, "Deleted /uploads/a.txt (2 chunks removed)")
}

func TestDeleteCmd_OrphanedSource(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.chunks = 2
	ts.docs.err = fmt.Errorf("%w: permission denied", domain.ErrOrphanedSource)

	out, err := run("delete", "/uploads/a.txt")

	assert.ErrorIs(t, err, domain.ErrOrphanedSource)
	assert.Contains(t, out, "needs manual cleanup")
}

func TestReprocessCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.chunks = 5

	out, err := run("reprocess", "/uploads/final.txt", "--old-ref", "draft.txt", "-u", "u2")

	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"draft.txt", "/uploads/final.txt"}}, ts.docs.reprocess)
	assert.Equal(t, "u2", ts.docs.indexOpts[0].UserID)
	assert.Contains(t, out, "Reprocessed /uploads/final.txt: 5 chunks")
}

func TestReprocessAllCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.report = &driving.ReprocessReport{Documents: 2, Chunks: 9, Missing: []string{"gone.txt"}}

	out, err := run("reprocess-all")

	require.NoError(t, err)
	assert.Contains(t, out, "Reprocessed 2 documents (9 chunks)")
	assert.Contains(t, out, "missing: gone.txt")
}

func TestReprocessAllCmd_Failures(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.report = &driving.ReprocessReport{
		Documents: 1,
		Failed: map[string]error{
			"b.txt": errors.New("embedding failed"),
			"a.txt": errors.New("unreadable"),
		},
	}

	out, err := run("reprocess-all")

	assert.EqualError(t, err, "2 documents failed to reprocess")
	assert.Contains(t, out, "failed:  a.txt: unreadable")
	assert.Less(t, strings.Index(out, "a.txt"), strings.Index(out, "b.txt"))
}

func TestDocumentsCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.documents = []domain.DocumentInfo{
		{Reference: "lease.txt", FilePath: "/uploads/u1_lease.txt", UserID: "u1", UploadDate: "2024-03-01T12:00:00Z", Chunks: 3},
		{Reference: "notes.md", Chunks: 1},
	}

	out, err := run("documents")

	require.NoError(t, err)
	assert.Contains(t, out, "lease.txt")
	assert.Contains(t, out, "Path: /uploads/u1_lease.txt")
	assert.Contains(t, out, "User: u1")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestDocumentsCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("ls")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents indexed.")
}

func TestDocumentsCmd_Structured(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.documents = []domain.DocumentInfo{{Reference: "lease.txt", UserID: "u1", Chunks: 3}}

	out, err := run("docs", "-o", "json")
	require.NoError(t, err)
	var fromJSON []documentView
	require.NoError(t, json.Unmarshal([]byte(out), &fromJSON))
	assert.Equal(t, []documentView{{Reference: "lease.txt", UserID: "u1", Chunks: 3}}, fromJSON)

	out, err = run("docs", "-o", "yaml")
	require.NoError(t, err)
	var fromYAML []documentView
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)
}

func TestStatsCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.stats = domain.IndexStats{Chunks: 12, Documents: 3, Dimensions: 512, Location: "/data/index.json"}

	out, err := run("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Chunks:     12")
	assert.Contains(t, out, "Documents:  3")
	assert.Contains(t, out, "Dimensions: 512")
	assert.Contains(t, out, "Location:   /data/index.json")
}

func TestStatsCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.docs.stats = domain.IndexStats{Chunks: 12, Documents: 3}

	out, err := run("stats", "--output", "json")

	require.NoError(t, err)
	var view statsView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, statsView{Chunks: 12, Documents: 3}, view)
}
