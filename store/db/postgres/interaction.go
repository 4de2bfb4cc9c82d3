package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/kiralabs/kira/store"
)

func (d *DB) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = nowTs()
	}
	fields := []string{"user_id", "platform", "sender_id", "sender_name", "direction", "content", "intent", "sentiment", "created_ts"}
	args := []any{
		create.UserID,
		create.Platform,
		create.SenderID,
		create.SenderName,
		create.Direction,
		create.Content,
		create.Intent,
		create.Sentiment,
		create.CreatedTs,
	}

	stmt := `INSERT INTO interactions (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create interaction")
	}
	return create, nil
}

func (d *DB) ListInteractions(ctx context.Context, find *store.FindInteraction) ([]*store.Interaction, error) {
	if find == nil {
		return nil, errors.New("find parameter cannot be nil")
	}

	where, args := []string{"1 = 1"}, []any{}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Platform != nil {
		where, args = append(where, "platform = "+placeholder(len(args)+1)), append(args, *find.Platform)
	}
	if find.SenderID != nil {
		where, args = append(where, "sender_id = "+placeholder(len(args)+1)), append(args, *find.SenderID)
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts > "+placeholder(len(args)+1)), append(args, *find.CreatedTsAfter)
	}

	query := `SELECT id, user_id, platform, sender_id, sender_name, direction, content, intent, sentiment, created_ts
		FROM interactions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if limit := find.Limit; limit > 0 {
		if limit > 1000 {
			limit = 1000
		}
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list interactions")
	}
	defer rows.Close()

	list := []*store.Interaction{}
	for rows.Next() {
		i := &store.Interaction{}
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Platform,
			&i.SenderID,
			&i.SenderName,
			&i.Direction,
			&i.Content,
			&i.Intent,
			&i.Sentiment,
			&i.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan interaction")
		}
		list = append(list, i)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate interactions")
	}
	return list, nil
}
