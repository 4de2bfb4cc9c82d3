package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/kiralabs/kira/store"
)

func (d *DB) GetEngagement(ctx context.Context, userID string) (*store.Engagement, error) {
	e := &store.Engagement{}
	err := d.db.QueryRowContext(ctx,
		`SELECT user_id, score, tier, affinity, updated_ts FROM engagement_scores WHERE user_id = $1`,
		userID,
	).Scan(&e.UserID, &e.Score, &e.Tier, &e.Affinity, &e.UpdatedTs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get engagement")
	}
	return e, nil
}

func (d *DB) CreateEngagementEvent(ctx context.Context, create *store.EngagementEvent) (*store.EngagementEvent, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = nowTs()
	}
	stmt := `INSERT INTO engagement_events (user_id, platform, event_type, points, created_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.Platform,
		create.EventType,
		create.Points,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create engagement event")
	}
	return create, nil
}
