package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kiralabs/kira/store"
)

func (d *DB) CreateConversationTurn(ctx context.Context, create *store.ConversationTurn) (*store.ConversationTurn, error) {
	table, ok := store.ConversationTable(create.Platform)
	if !ok {
		return nil, errors.Errorf("platform %q has no conversation table", create.Platform)
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = nowTs()
	}

	// table comes from a fixed allowlist.
	stmt := `INSERT INTO ` + table + ` (chat_id, sender_id, sender_name, role, content, created_ts)
		VALUES (` + placeholders(6) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.ChatID,
		create.SenderID,
		create.SenderName,
		create.Role,
		create.Content,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrapf(err, "failed to create conversation turn in %s", table)
	}
	return create, nil
}
