package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNormaliser_Registration(t *testing.T) {
	n := New()

	assert.Contains(t, n.SupportedMIMETypes(), "text/plain")
	assert.Contains(t, n.SupportedMIMETypes(), "application/json")
	assert.NotContains(t, n.SupportedMIMETypes(), "text/markdown")
	assert.Equal(t, 5, n.Priority())
}

func TestNormalise_Nil(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_Content(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty", nil, ""},
		{"unchanged", []byte("Rent: 950 EUR\nDeposit: 1900 EUR"), "Rent: 950 EUR\nDeposit: 1900 EUR"},
		{"unicode", []byte("Huurprijs € 950\nこんにちは\nПривет"), "Huurprijs € 950\nこんにちは\nПривет"},
		{"crlf", []byte("one\r\ntwo\r\n"), "one\ntwo\n"},
		{"bare cr", []byte("one\rtwo"), "one\ntwo"},
		{"byte order mark", append([]byte{0xEF, 0xBB, 0xBF}, "lease"...), "lease"},
		{"invalid utf-8", []byte{'c', 'a', 'f', 0xe9}, "caf�"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), &domain.RawDocument{
				MIMEType: "text/plain",
				Content:  tt.input,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Document.Content)
		})
	}
}

func TestNormalise_Metadata(t *testing.T) {
	meta := map[string]any{"user_id": "u1", "line_count": 100}

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:      "/uploads/u1_costs.csv",
		MIMEType: "text/csv",
		Content:  []byte("item,cost\nrent,950"),
		Metadata: meta,
	})

	require.NoError(t, err)
	got := result.Document.Metadata
	assert.Equal(t, "u1", got["user_id"])
	assert.Equal(t, 100, got["line_count"])
	assert.Equal(t, "text/csv", got["mime_type"])
	assert.Equal(t, "text", got["format"])
	assert.NotContains(t, meta, "mime_type", "input metadata is not modified")
}

func TestNormalise_Large(t *testing.T) {
	content := strings.Repeat("abcdefghijklmnopqrstuvwxyz", 40000)

	result, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte(content)})

	require.NoError(t, err)
	assert.Len(t, result.Document.Content, len(content))
}
