package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Contents: []string{"Huurprijs 950 per maand", "Borg twee maanden"},
		Metadatas: []map[string]any{
			{domain.MetaOriginalFilename: "huur.txt", domain.MetaChunk: 1, "score": 0.5},
			{domain.MetaOriginalFilename: "huur.txt", domain.MetaChunk: 2, "tags": []any{"a", 3}},
		},
		IDs:        []string{"id-1", "id-2"},
		Embeddings: [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
	}
}

func TestNewArtifactStore_DirectoryPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	store, err := NewArtifactStore(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultArtifactName), store.Location())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewArtifactStore_FilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	store, err := NewArtifactStore(path)

	require.NoError(t, err)
	assert.Equal(t, path, store.Location())
}

func TestArtifactStore_LoadMissing(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	snap, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestArtifactStore_RoundTrip(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	loaded, err := store.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), loaded)
}

func TestArtifactStore_SaveEmpty(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Snapshot{}))

	data, err := os.ReadFile(store.Location())
	require.NoError(t, err)
	assert.JSONEq(t, `{"documents":[],"metadatas":[],"ids":[],"embeddings":[]}`, string(data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestArtifactStore_LoadExistingLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultArtifactName)
	body := `{
		"documents": ["Huurprijs 950"],
		"metadatas": [{"original_filename": "huur.txt", "chunk": 1, "user_id": "u1"}],
		"ids": ["a4d9"],
		"embeddings": [[0.5, 0.25]]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)

	snap, err := store.Load(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "Huurprijs 950", snap.Contents[0])
	assert.Equal(t, 1, snap.Metadatas[0][domain.MetaChunk])
	assert.Equal(t, []float32{0.5, 0.25}, snap.Embeddings[0])
}

func TestArtifactStore_LoadCorruptMovesAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultArtifactName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }

	snap, err := store.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
	assert.Equal(t, 0, snap.Len())
	assert.NoFileExists(t, path)
	assert.FileExists(t, path+".corrupt-1700000000")

	// The next load starts from an empty store.
	snap, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestArtifactStore_LoadMisaligned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultArtifactName)
	body := `{"documents":["a","b"],"metadatas":[{}],"ids":["1","2"],"embeddings":[[1],[1]]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)

	_, err = store.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
	assert.NoFileExists(t, path)
}

func TestArtifactStore_SaveFailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	bad := sampleSnapshot()
	bad.Metadatas[0]["unencodable"] = make(chan int)
	err = store.Save(ctx, bad)
	require.Error(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestArtifactStore_Cancelled(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, sampleSnapshot()), context.Canceled)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArtifactStore_Close(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
