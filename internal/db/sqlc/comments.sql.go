// source: comments.sql

package sqlc

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const commentColumns = `id, article_id, author_id, parent_id, content, created_at`

const createComment = `-- name: CreateComment :one
INSERT INTO comments (id, article_id, author_id, parent_id, content)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + commentColumns

type CreateCommentParams struct {
	ID        uuid.UUID
	ArticleID uuid.UUID
	AuthorID  uuid.UUID
	ParentID  uuid.NullUUID
	Content   string
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.ID,
		arg.ArticleID,
		arg.AuthorID,
		arg.ParentID,
		arg.Content,
	)
	var i Comment
	err := row.Scan(
		&i.ID,
		&i.ArticleID,
		&i.AuthorID,
		&i.ParentID,
		&i.Content,
		&i.CreatedAt,
	)
	return i, err
}

const getCommentByID = `-- name: GetCommentByID :one
SELECT ` + commentColumns + `
FROM comments
WHERE id = $1`

func (q *Queries) GetCommentByID(ctx context.Context, id uuid.UUID) (Comment, error) {
	row := q.db.QueryRowContext(ctx, getCommentByID, id)
	var i Comment
	err := row.Scan(
		&i.ID,
		&i.ArticleID,
		&i.AuthorID,
		&i.ParentID,
		&i.Content,
		&i.CreatedAt,
	)
	return i, err
}

type CommentWithAuthorRow struct {
	ID              uuid.UUID
	ArticleID       uuid.UUID
	AuthorID        uuid.UUID
	ParentID        uuid.NullUUID
	Content         string
	CreatedAt       time.Time
	AuthorUsername  string
	AuthorAvatarUrl sql.NullString
}

func collectCommentsWithAuthor(rows *sql.Rows) ([]CommentWithAuthorRow, error) {
	defer rows.Close()
	var items []CommentWithAuthorRow
	for rows.Next() {
		var i CommentWithAuthorRow
		if err := rows.Scan(
			&i.ID,
			&i.ArticleID,
			&i.AuthorID,
			&i.ParentID,
			&i.Content,
			&i.CreatedAt,
			&i.AuthorUsername,
			&i.AuthorAvatarUrl,
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

const listTopLevelComments = `-- name: ListTopLevelComments :many
SELECT c.id, c.article_id, c.author_id, c.parent_id, c.content, c.created_at,
       u.username AS author_username, u.avatar_url AS author_avatar_url
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.article_id = $1 AND c.parent_id IS NULL
ORDER BY c.created_at DESC`

func (q *Queries) ListTopLevelComments(ctx context.Context, articleID uuid.UUID) ([]CommentWithAuthorRow, error) {
	rows, err := q.db.QueryContext(ctx, listTopLevelComments, articleID)
	if err != nil {
		return nil, err
	}
	return collectCommentsWithAuthor(rows)
}

const listCommentReplies = `-- name: ListCommentReplies :many
SELECT c.id, c.article_id, c.author_id, c.parent_id, c.content, c.created_at,
       u.username AS author_username, u.avatar_url AS author_avatar_url
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.parent_id = $1
ORDER BY c.created_at ASC`

func (q *Queries) ListCommentReplies(ctx context.Context, parentID uuid.NullUUID) ([]CommentWithAuthorRow, error) {
	rows, err := q.db.QueryContext(ctx, listCommentReplies, parentID)
	if err != nil {
		return nil, err
	}
	return collectCommentsWithAuthor(rows)
}

const deleteCommentThread = `-- name: DeleteCommentThread :execrows
DELETE FROM comments WHERE id = $1 OR parent_id = $1`

func (q *Queries) DeleteCommentThread(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCommentThread, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCommentsByArticle = `-- name: DeleteCommentsByArticle :execrows
DELETE FROM comments WHERE article_id = $1`

func (q *Queries) DeleteCommentsByArticle(ctx context.Context, articleID uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCommentsByArticle, articleID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countComments = `-- name: CountComments :one
SELECT COUNT(*)::bigint FROM comments`

func (q *Queries) CountComments(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countComments)
	var count int64
	err := row.Scan(&count)
	return count, err
}
