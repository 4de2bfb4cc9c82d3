package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/kiralabs/kira/store"
)

func (d *DB) CreatePlatformLink(ctx context.Context, create *store.PlatformLink) (*store.PlatformLink, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = nowTs()
	}
	stmt := `INSERT INTO platform_links (user_id, platform, platform_user_id, username, created_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.Platform,
		create.PlatformUserID,
		create.Username,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create platform link")
	}
	return create, nil
}

func (d *DB) ListPlatformLinks(ctx context.Context, find *store.FindPlatformLink) ([]*store.PlatformLink, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Platform != nil {
		where, args = append(where, "platform = "+placeholder(len(args)+1)), append(args, *find.Platform)
	}
	if find.PlatformUserID != nil {
		where, args = append(where, "platform_user_id = "+placeholder(len(args)+1)), append(args, *find.PlatformUserID)
	}

	query := `SELECT id, user_id, platform, platform_user_id, username, created_ts
		FROM platform_links
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC` + limitClause(find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list platform links")
	}
	defer rows.Close()

	list := []*store.PlatformLink{}
	for rows.Next() {
		link := &store.PlatformLink{}
		if err := rows.Scan(
			&link.ID,
			&link.UserID,
			&link.Platform,
			&link.PlatformUserID,
			&link.Username,
			&link.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan platform link")
		}
		list = append(list, link)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate platform links")
	}
	return list, nil
}
