package sqlite

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/kiralabs/kira/store"
)

func (d *DB) CreateMemory(ctx context.Context, create *store.MemoryEntry) (*store.MemoryEntry, error) {
	if create.ID == "" {
		create.ID = uuid.NewString()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = nowTs()
	}

	stmt := `INSERT INTO kira_memories (id, user_id, platform, inbound, outbound, content, embedding, importance, created_ts)
		VALUES (` + placeholders(9) + `)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.UserID,
		create.Platform,
		create.Inbound,
		create.Outbound,
		create.Content,
		pgvector.NewVector(create.Embedding),
		create.Importance,
		create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create memory")
	}
	return create, nil
}

// MatchMemories scores every stored memory against the query in Go.
func (d *DB) MatchMemories(ctx context.Context, match *store.MatchMemories) ([]*store.MemoryMatch, error) {
	if match == nil || len(match.Embedding) == 0 {
		return nil, errors.New("match embedding is required")
	}
	limit := match.Limit
	if limit <= 0 {
		limit = 5
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, platform, inbound, outbound, content, embedding, importance, created_ts FROM kira_memories`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to match memories")
	}
	defer rows.Close()

	candidates := []scored[*store.MemoryEntry]{}
	for rows.Next() {
		entry := &store.MemoryEntry{}
		var vector pgvector.Vector
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Platform,
			&entry.Inbound,
			&entry.Outbound,
			&entry.Content,
			&vector,
			&entry.Importance,
			&entry.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory")
		}
		entry.Embedding = vector.Slice()
		candidates = append(candidates, scored[*store.MemoryEntry]{
			item:  entry,
			score: CosineSimilarity(match.Embedding, entry.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate memories")
	}

	results := []*store.MemoryMatch{}
	for _, c := range topK(candidates, match.Threshold, limit) {
		results = append(results, &store.MemoryMatch{Entry: c.item, Similarity: c.score})
	}
	return results, nil
}
