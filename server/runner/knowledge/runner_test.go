package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/store"
)

type fakeWriter struct {
	mu      sync.Mutex
	entries []*store.KnowledgeEntry
	failOn  string
}

func (w *fakeWriter) CreateKnowledgeEntry(_ context.Context, create *store.KnowledgeEntry) (*store.KnowledgeEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn != "" && strings.HasPrefix(create.Title, w.failOn) {
		return nil, errors.New("insert failed")
	}
	w.entries = append(w.entries, create)
	return create, nil
}

func TestChunkDocument(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		assert.Equal(t, []string{"one paragraph"}, ChunkDocument("  one paragraph \n"))
		assert.Nil(t, ChunkDocument("   "))
	})

	t.Run("long", func(t *testing.T) {
		para := strings.Repeat("The treasury is managed on chain. ", 10)
		content := strings.Join([]string{para, para, para, para}, "\n\n")

		chunks := ChunkDocument(content)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), ChunkSize)
			assert.NotEmpty(t, c)
		}
	})

	t.Run("single huge paragraph", func(t *testing.T) {
		content := strings.Repeat("word ", 500)
		chunks := ChunkDocument(content)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), ChunkSize)
		}
	})

	t.Run("sizes count characters", func(t *testing.T) {
		content := strings.Repeat("a", 301) + "\n\n" + strings.Repeat("中", 400)
		chunks := ChunkDocument(content)
		require.Len(t, chunks, 1)
		assert.True(t, utf8.ValidString(chunks[0]))
	})

	t.Run("cjk", func(t *testing.T) {
		sentence := strings.Repeat("金库由链上合约管理", 5) + "。"
		content := strings.Join([]string{
			strings.Repeat("a", 301),
			strings.Repeat("中", 1500),
			strings.Repeat(sentence, 30),
		}, "\n\n")

		chunks := ChunkDocument(content)
		require.Greater(t, len(chunks), 2)
		for i, c := range chunks {
			assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8", i)
			assert.LessOrEqual(t, utf8.RuneCountInString(c), ChunkSize)
			assert.NotEmpty(t, c)
		}
		assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "。"))
	})
}

func TestRunner_IndexDocuments(t *testing.T) {
	writer := &fakeWriter{}
	embedder := &ai.MockEmbeddingService{Vector: []float32{0.1, 0.2, 0.3}}
	r := NewRunner(writer, embedder)

	long := strings.Repeat("Holders can stake to earn a share of fees. ", 40)
	stored, err := r.IndexDocuments(context.Background(), []*Document{
		{Title: "Token", Content: "KIRA trades on Solana.", Category: "token"},
		{Title: "Staking", Content: long, Category: "token"},
	})
	require.NoError(t, err)

	require.Equal(t, len(writer.entries), stored)
	require.Greater(t, stored, 2)
	assert.Equal(t, "Token", writer.entries[0].Title)
	assert.Equal(t, "token", writer.entries[0].Category)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, writer.entries[0].Embedding)
	assert.True(t, strings.HasPrefix(writer.entries[1].Title, "Staking (1/"))
}

func TestRunner_IndexDocuments_Failures(t *testing.T) {
	t.Run("embedding fails", func(t *testing.T) {
		writer := &fakeWriter{}
		r := NewRunner(writer, &ai.MockEmbeddingService{Err: errors.New("quota")})

		stored, err := r.IndexDocuments(context.Background(), []*Document{{Title: "A", Content: "a"}})
		require.NoError(t, err)
		assert.Equal(t, 0, stored)
	})

	t.Run("one insert fails", func(t *testing.T) {
		writer := &fakeWriter{failOn: "B"}
		r := NewRunner(writer, &ai.MockEmbeddingService{Vector: []float32{1}})

		stored, err := r.IndexDocuments(context.Background(), []*Document{
			{Title: "A", Content: "a"},
			{Title: "B", Content: "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, stored)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := NewRunner(&fakeWriter{}, &ai.MockEmbeddingService{Vector: []float32{1}})

		_, err := r.IndexDocuments(ctx, []*Document{{Title: "A", Content: "a"}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "token"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.md"), []byte("# About Kira\n\nAn AI streamer."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token", "supply.md"), []byte("Total supply is fixed."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byTitle := map[string]*Document{}
	for _, d := range docs {
		byTitle[d.Title] = d
	}
	require.Contains(t, byTitle, "About Kira")
	assert.Equal(t, "", byTitle["About Kira"].Category)
	require.Contains(t, byTitle, "supply")
	assert.Equal(t, "token", byTitle["supply"].Category)
}
