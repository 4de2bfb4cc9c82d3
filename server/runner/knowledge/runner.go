// Package knowledge indexes markdown documents into the knowledge base the
// context loader searches.
package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/store"
)

// Writer is the subset of the store the indexer writes to.
type Writer interface {
	CreateKnowledgeEntry(ctx context.Context, create *store.KnowledgeEntry) (*store.KnowledgeEntry, error)
}

// Document is one source document.
type Document struct {
	Title    string
	Content  string
	Category string
}

// Runner embeds documents chunk by chunk and stores each chunk as a knowledge entry.
type Runner struct {
	store            Writer
	embeddingService ai.EmbeddingService
	batchSize        int
}

// NewRunner creates a knowledge indexing runner.
func NewRunner(s Writer, embeddingService ai.EmbeddingService) *Runner {
	return &Runner{
		store:            s,
		embeddingService: embeddingService,
		batchSize:        8,
	}
}

type pendingChunk struct {
	title    string
	content  string
	category string
}

// IndexDocuments chunks, embeds and stores documents. It returns the number of
// entries stored; a failing batch is logged and skipped.
func (r *Runner) IndexDocuments(ctx context.Context, docs []*Document) (int, error) {
	var chunks []pendingChunk
	for _, doc := range docs {
		parts := ChunkDocument(doc.Content)
		for i, part := range parts {
			title := doc.Title
			if len(parts) > 1 {
				title = fmt.Sprintf("%s (%d/%d)", doc.Title, i+1, len(parts))
			}
			chunks = append(chunks, pendingChunk{title: title, content: part, category: doc.Category})
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	slog.Info("indexing knowledge chunks", "documents", len(docs), "chunks", len(chunks))

	stored := 0
	for i := 0; i < len(chunks); i += r.batchSize {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		end := min(i+r.batchSize, len(chunks))
		n, err := r.processBatch(ctx, chunks[i:end])
		stored += n
		if err != nil {
			slog.Error("failed to process knowledge batch", "error", err)
			continue
		}
		slog.Info("knowledge batch processed", "count", end-i, "progress", fmt.Sprintf("%d/%d", end, len(chunks)))
	}
	return stored, nil
}

func (r *Runner) processBatch(ctx context.Context, batch []pendingChunk) (int, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.title + "\n\n" + c.content
	}

	vectors, err := r.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, errors.Wrap(err, "failed to embed batch")
	}
	if len(vectors) != len(batch) {
		return 0, errors.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(batch))
	}

	stored := 0
	for i, c := range batch {
		_, err := r.store.CreateKnowledgeEntry(ctx, &store.KnowledgeEntry{
			Title:     c.title,
			Content:   c.content,
			Category:  c.category,
			Embedding: vectors[i],
		})
		if err != nil {
			slog.Error("failed to store knowledge entry", "title", c.title, "error", err)
			continue
		}
		stored++
	}
	return stored, nil
}

// LoadDir reads every markdown file under dir. The category of a document is
// its directory relative to dir; the title is its first heading or file name.
func LoadDir(dir string) ([]*Document, error) {
	var docs []*Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		source, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}

		rel, _ := filepath.Rel(dir, filepath.Dir(path))
		category := filepath.ToSlash(rel)
		if category == "." {
			category = ""
		}

		title := firstHeading(source)
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		docs = append(docs, &Document{Title: title, Content: string(source), Category: category})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// firstHeading returns the text of the first markdown heading in source.
func firstHeading(source []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		title = strings.TrimSpace(buf.String())
		return ast.WalkStop, nil
	})
	return title
}
