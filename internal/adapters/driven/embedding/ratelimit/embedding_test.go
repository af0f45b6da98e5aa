package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	calls  int
	closed bool
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	return []float32{1, 0}, nil
}

func (e *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int              { return 2 }
func (e *stubEmbedder) ModelName() string            { return "stub" }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { e.closed = true; return nil }

func TestNew_NoLimitReturnsInner(t *testing.T) {
	inner := &stubEmbedder{}

	assert.Same(t, inner, New(inner, 0, 0))
	assert.IsType(t, &EmbeddingService{}, New(inner, 5, 0))
}

func TestEmbed_WithinBurst(t *testing.T) {
	inner := &stubEmbedder{}
	svc := New(inner, 1, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Embed(ctx, "a")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, inner.calls)
}

func TestEmbed_BlocksBeyondBurst(t *testing.T) {
	inner := &stubEmbedder{}
	svc := New(inner, 0.01, 1)

	_, err := svc.Embed(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.Embed(ctx, "a")

	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestEmbedBatch_OneTokenPerBatch(t *testing.T) {
	inner := &stubEmbedder{}
	svc := New(inner, 0.01, 1)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 1, inner.calls)

	empty, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestDelegation(t *testing.T) {
	inner := &stubEmbedder{}
	svc := New(inner, 10, 1)

	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "stub", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
	assert.True(t, inner.closed)
}
