package postgres

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

// MatchMemories calls the match_memories RPC.
func (d *DB) MatchMemories(ctx context.Context, match *store.MatchMemories) ([]*store.MemoryMatch, error) {
	if match == nil || len(match.Embedding) == 0 {
		return nil, errors.New("match embedding is required")
	}
	limit := match.Limit
	if limit <= 0 {
		limit = 5
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, platform, inbound, outbound, content, importance, created_ts, similarity
		FROM match_memories($1, $2, $3)`,
		pgvector.NewVector(match.Embedding), match.Threshold, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to match memories")
	}
	defer rows.Close()

	results := []*store.MemoryMatch{}
	for rows.Next() {
		entry := &store.MemoryEntry{}
		var similarity float32
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Platform,
			&entry.Inbound,
			&entry.Outbound,
			&entry.Content,
			&entry.Importance,
			&entry.CreatedTs,
			&similarity,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory match")
		}
		results = append(results, &store.MemoryMatch{Entry: entry, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate memory matches")
	}
	return results, nil
}
