package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-chat/parley/internal/models"
)

type channelOverrideRepo struct {
	pool *pgxpool.Pool
}

func NewChannelOverrideRepository(pool *pgxpool.Pool) ChannelOverrideRepository {
	return &channelOverrideRepo{pool: pool}
}

func (r *channelOverrideRepo) Set(ctx context.Context, override *models.ChannelOverride) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO channel_overrides (channel_id, target_type, target_id, allow_kinds, deny_kinds)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (channel_id, target_type, target_id)
		 DO UPDATE SET allow_kinds = EXCLUDED.allow_kinds, deny_kinds = EXCLUDED.deny_kinds`,
		override.ChannelID, string(override.Target.Type), override.Target.ID, override.Allow, override.Deny,
	)
	return err
}

func (r *channelOverrideRepo) GetByChannel(ctx context.Context, channelID int64) ([]models.ChannelOverride, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT channel_id, target_type, target_id, allow_kinds, deny_kinds
		 FROM channel_overrides WHERE channel_id = $1`, channelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOverrides(rows)
}

func (r *channelOverrideRepo) GetApplicable(ctx context.Context, channelID int64, roleIDs []int64, userID int64) ([]models.ChannelOverride, error) {
	// Passing an empty array for roleIDs is fine: target_id = ANY('{}')
	// matches nothing, leaving only the user-scoped row.
	rows, err := r.pool.Query(ctx,
		`SELECT channel_id, target_type, target_id, allow_kinds, deny_kinds
		 FROM channel_overrides
		 WHERE channel_id = $1
		   AND ((target_type = 'role' AND target_id = ANY($2))
		     OR (target_type = 'user' AND target_id = $3))`,
		channelID, roleIDs, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOverrides(rows)
}

func (r *channelOverrideRepo) Delete(ctx context.Context, channelID int64, target models.OverrideTarget) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM channel_overrides WHERE channel_id = $1 AND target_type = $2 AND target_id = $3`,
		channelID, string(target.Type), target.ID,
	)
	return err
}

func (r *channelOverrideRepo) DeleteByRole(ctx context.Context, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM channel_overrides WHERE target_type = 'role' AND target_id = $1`, roleID,
	)
	return err
}

func scanOverrides(rows pgx.Rows) ([]models.ChannelOverride, error) {
	var overrides []models.ChannelOverride
	for rows.Next() {
		var o models.ChannelOverride
		var targetType string
		if err := rows.Scan(&o.ChannelID, &targetType, &o.Target.ID, &o.Allow, &o.Deny); err != nil {
			return nil, err
		}
		o.Target.Type = models.OverrideTargetType(targetType)
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
