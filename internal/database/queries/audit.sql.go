// source: audit.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createAuditLog = `-- name: CreateAuditLog :one
INSERT INTO audit_logs (actor_id, event_type, description)
VALUES ($1, $2, $3)
RETURNING id, actor_id, event_type, description, created_at
`

type CreateAuditLogParams struct {
	ActorID     pgtype.Int4 `json:"actor_id"`
	EventType   string      `json:"event_type"`
	Description string      `json:"description"`
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, createAuditLog, arg.ActorID, arg.EventType, arg.Description)
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.ActorID,
		&i.EventType,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const listAuditLogs = `-- name: ListAuditLogs :many
SELECT id, actor_id, event_type, description, created_at FROM audit_logs
WHERE ($1::text IS NULL OR event_type = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListAuditLogsParams struct {
	EventType pgtype.Text `json:"event_type"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.EventType, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AuditLog{}
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.ActorID,
			&i.EventType,
			&i.Description,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
