// source: admin.sql

package sqlc

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const getDashboardStats = `-- name: GetDashboardStats :one
SELECT
  (SELECT COUNT(*) FROM users)::bigint AS total_users,
  (SELECT COUNT(*) FROM users WHERE role IN ('writer', 'admin', 'owner'))::bigint AS total_writers,
  (SELECT COUNT(*) FROM articles)::bigint AS total_articles,
  (SELECT COUNT(*) FROM articles WHERE status = 'published')::bigint AS published_articles,
  (SELECT COUNT(*) FROM articles WHERE status IN ('pending', 'under_review'))::bigint AS pending_articles,
  (SELECT COUNT(*) FROM articles WHERE status = 'draft')::bigint AS draft_articles,
  (SELECT COALESCE(SUM(views), 0) FROM articles)::bigint AS total_views,
  (SELECT COUNT(*) FROM comments)::bigint AS total_comments,
  (SELECT COUNT(*) FROM newsletters)::bigint AS total_newsletters,
  (SELECT COUNT(*) FROM newsletters WHERE status = 'Sent')::bigint AS sent_newsletters`

type GetDashboardStatsRow struct {
	TotalUsers        int64
	TotalWriters      int64
	TotalArticles     int64
	PublishedArticles int64
	PendingArticles   int64
	DraftArticles     int64
	TotalViews        int64
	TotalComments     int64
	TotalNewsletters  int64
	SentNewsletters   int64
}

func (q *Queries) GetDashboardStats(ctx context.Context) (GetDashboardStatsRow, error) {
	row := q.db.QueryRowContext(ctx, getDashboardStats)
	var i GetDashboardStatsRow
	err := row.Scan(
		&i.TotalUsers,
		&i.TotalWriters,
		&i.TotalArticles,
		&i.PublishedArticles,
		&i.PendingArticles,
		&i.DraftArticles,
		&i.TotalViews,
		&i.TotalComments,
		&i.TotalNewsletters,
		&i.SentNewsletters,
	)
	return i, err
}

const listTableStats = `-- name: ListTableStats :many
SELECT relname::text AS name,
       n_live_tup::bigint AS row_count,
       pg_size_pretty(pg_total_relation_size(relid))::text AS total_size,
       GREATEST(last_vacuum, last_autovacuum, last_analyze, last_autoanalyze)::timestamptz AS last_modified
FROM pg_stat_user_tables
WHERE schemaname = 'public' AND relname <> 'goose_db_version'
ORDER BY relname`

type ListTableStatsRow struct {
	Name         string
	RowCount     int64
	TotalSize    string
	LastModified sql.NullTime
}

func (q *Queries) ListTableStats(ctx context.Context) ([]ListTableStatsRow, error) {
	rows, err := q.db.QueryContext(ctx, listTableStats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListTableStatsRow
	for rows.Next() {
		var i ListTableStatsRow
		if err := rows.Scan(
			&i.Name,
			&i.RowCount,
			&i.TotalSize,
			&i.LastModified,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createModerationLog = `-- name: CreateModerationLog :one
INSERT INTO moderation_logs (id, admin_user_id, action, target_type, target_id, details)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, admin_user_id, action, target_type, target_id, details, created_at`

type CreateModerationLogParams struct {
	ID          uuid.UUID
	AdminUserID uuid.NullUUID
	Action      string
	TargetType  string
	TargetID    string
	Details     json.RawMessage
}

func (q *Queries) CreateModerationLog(ctx context.Context, arg CreateModerationLogParams) (ModerationLog, error) {
	details := "{}"
	if len(arg.Details) > 0 {
		details = string(arg.Details)
	}
	row := q.db.QueryRowContext(ctx, createModerationLog,
		arg.ID,
		arg.AdminUserID,
		arg.Action,
		arg.TargetType,
		arg.TargetID,
		details,
	)
	var i ModerationLog
	err := row.Scan(
		&i.ID,
		&i.AdminUserID,
		&i.Action,
		&i.TargetType,
		&i.TargetID,
		&i.Details,
		&i.CreatedAt,
	)
	return i, err
}

const moderationLogFilter = `
WHERE ($1::text IS NULL OR l.action = $1::text)
  AND ($2::text IS NULL OR l.target_type = $2::text)
  AND ($3::text IS NULL OR l.target_id = $3::text)`

const listModerationLogs = `-- name: ListModerationLogs :many
SELECT l.id, l.admin_user_id, l.action, l.target_type, l.target_id, l.details, l.created_at,
       u.username AS admin_username
FROM moderation_logs l
LEFT JOIN users u ON u.id = l.admin_user_id` + moderationLogFilter + `
ORDER BY l.created_at DESC
LIMIT $4 OFFSET $5`

type ListModerationLogsParams struct {
	Action     sql.NullString
	TargetType sql.NullString
	TargetID   sql.NullString
	Lim        int32
	Off        int32
}

type ListModerationLogsRow struct {
	ID            uuid.UUID
	AdminUserID   uuid.NullUUID
	Action        string
	TargetType    string
	TargetID      string
	Details       json.RawMessage
	CreatedAt     time.Time
	AdminUsername sql.NullString
}

func (q *Queries) ListModerationLogs(ctx context.Context, arg ListModerationLogsParams) ([]ListModerationLogsRow, error) {
	rows, err := q.db.QueryContext(ctx, listModerationLogs,
		arg.Action,
		arg.TargetType,
		arg.TargetID,
		arg.Lim,
		arg.Off,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListModerationLogsRow
	for rows.Next() {
		var i ListModerationLogsRow
		if err := rows.Scan(
			&i.ID,
			&i.AdminUserID,
			&i.Action,
			&i.TargetType,
			&i.TargetID,
			&i.Details,
			&i.CreatedAt,
			&i.AdminUsername,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countModerationLogs = `-- name: CountModerationLogs :one
SELECT COUNT(*)::bigint
FROM moderation_logs l` + moderationLogFilter

type CountModerationLogsParams struct {
	Action     sql.NullString
	TargetType sql.NullString
	TargetID   sql.NullString
}

func (q *Queries) CountModerationLogs(ctx context.Context, arg CountModerationLogsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countModerationLogs, arg.Action, arg.TargetType, arg.TargetID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
