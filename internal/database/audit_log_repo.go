package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-chat/parley/internal/models"
)

type auditLogRepo struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepo{pool: pool}
}

func (r *auditLogRepo) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, server_id, actor_id, action, target_id, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ServerID, entry.ActorID, entry.Action, entry.TargetID, entry.Detail, entry.CreatedAt,
	)
	return err
}

func (r *auditLogRepo) GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.AuditLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, server_id, actor_id, action, target_id, detail, created_at
		 FROM audit_log WHERE server_id = $1
		 ORDER BY id DESC
		 LIMIT $2 OFFSET $3`, serverID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.ServerID, &e.ActorID, &e.Action, &e.TargetID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
