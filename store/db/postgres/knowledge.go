package postgres

import (
	"context"

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

// SearchKnowledge performs vector similarity search using pgvector's cosine distance.
func (d *DB) SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*store.KnowledgeMatch, error) {
	if len(embedding) == 0 {
		return nil, errors.New("embedding is required")
	}
	if limit <= 0 {
		limit = 3
	}

	query := `
		SELECT id, title, content, category, created_ts,
			1 - (embedding <=> $1) AS similarity
		FROM knowledge_base
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search knowledge base")
	}
	defer rows.Close()

	results := []*store.KnowledgeMatch{}
	for rows.Next() {
		entry := &store.KnowledgeEntry{}
		var similarity float32
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Content, &entry.Category, &entry.CreatedTs, &similarity); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge match")
		}
		results = append(results, &store.KnowledgeMatch{Entry: entry, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate knowledge matches")
	}
	return results, nil
}
