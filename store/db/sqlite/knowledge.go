package sqlite

import (
	"context"
	"math"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/kiralabs/kira/store"
)

func (d *DB) CreateKnowledgeEntry(ctx context.Context, create *store.KnowledgeEntry) (*store.KnowledgeEntry, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = nowTs()
	}
	stmt := `INSERT INTO knowledge_base (title, content, category, embedding, created_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.Title,
		create.Content,
		create.Category,
		pgvector.NewVector(create.Embedding),
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create knowledge entry")
	}
	return create, nil
}

// SearchKnowledge ranks knowledge entries by cosine similarity in Go.
func (d *DB) SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*store.KnowledgeMatch, error) {
	if len(embedding) == 0 {
		return nil, errors.New("embedding is required")
	}
	if limit <= 0 {
		limit = 3
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id, title, content, category, embedding, created_ts FROM knowledge_base`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search knowledge base")
	}
	defer rows.Close()

	candidates := []scored[*store.KnowledgeEntry]{}
	for rows.Next() {
		entry := &store.KnowledgeEntry{}
		var vector pgvector.Vector
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Content, &entry.Category, &vector, &entry.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge entry")
		}
		entry.Embedding = vector.Slice()
		candidates = append(candidates, scored[*store.KnowledgeEntry]{
			item:  entry,
			score: CosineSimilarity(embedding, entry.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate knowledge entries")
	}

	// Same ordering as the pgvector query: nearest first, no threshold.
	results := []*store.KnowledgeMatch{}
	for _, c := range topK(candidates, float32(math.Inf(-1)), limit) {
		results = append(results, &store.KnowledgeMatch{Entry: c.item, Similarity: c.score})
	}
	return results, nil
}
