package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(t *testing.T, inputs *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if inputs != nil {
			*inputs = req.Input
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{0.1, 0.2, 0.3}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "text-embedding-3-small"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(nil)
	require.Error(t, err)

	_, err = NewEmbeddingService(&EmbeddingConfig{Model: "text-embedding-3-small"})
	require.Error(t, err)

	svc, err := NewEmbeddingService(&EmbeddingConfig{Model: "text-embedding-3-small", APIKey: "k", Dimensions: 1536})
	require.NoError(t, err)
	assert.Equal(t, 1536, svc.Dimensions())
}

func TestEmbeddingService_Embed(t *testing.T) {
	var inputs []string
	srv := newEmbeddingServer(t, &inputs)

	svc, err := NewEmbeddingService(&EmbeddingConfig{Model: "text-embedding-3-small", APIKey: "k", BaseURL: srv.URL, MaxInputChars: 10})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), strings.Repeat("a", 25))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	require.Len(t, inputs, 1)
	assert.Len(t, inputs[0], 10)
}

func TestEmbeddingService_EmbedBatchEmpty(t *testing.T) {
	svc, err := NewEmbeddingService(&EmbeddingConfig{Model: "m", APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), nil)
	require.Error(t, err)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "ab", TruncateRunes("abc", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 0))

	out := TruncateRunes("héllo wörld", 7)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 7, utf8.RuneCountInString(out))
}
