package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/kiralabs/kira/store"
)

func (d *DB) GetRelationship(ctx context.Context, userID string) (*store.Relationship, error) {
	r := &store.Relationship{}
	err := d.db.QueryRowContext(ctx,
		`SELECT user_id, notes, interaction_count, last_interaction, last_interaction_summary, favorite, updated_ts FROM relationships WHERE user_id = ?`,
		userID,
	).Scan(&r.UserID, &r.Notes, &r.InteractionCount, &r.LastInteraction, &r.LastInteractionSummary, &r.Favorite, &r.UpdatedTs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get relationship")
	}
	return r, nil
}

func (d *DB) UpsertRelationship(ctx context.Context, upsert *store.UpsertRelationship) (*store.Relationship, error) {
	ts := upsert.Ts
	if ts == 0 {
		ts = nowTs()
	}
	stmt := `INSERT INTO relationships (user_id, last_interaction_summary, interaction_count, last_interaction, updated_ts)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			last_interaction_summary = EXCLUDED.last_interaction_summary,
			interaction_count = relationships.interaction_count + 1,
			last_interaction = EXCLUDED.last_interaction,
			updated_ts = EXCLUDED.updated_ts
		RETURNING user_id, notes, interaction_count, last_interaction, last_interaction_summary, favorite, updated_ts`

	r := &store.Relationship{}
	if err := d.db.QueryRowContext(ctx, stmt, upsert.UserID, upsert.Summary, ts, ts).Scan(
		&r.UserID, &r.Notes, &r.InteractionCount, &r.LastInteraction, &r.LastInteractionSummary, &r.Favorite, &r.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert relationship")
	}
	return r, nil
}
