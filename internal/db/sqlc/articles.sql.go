// source: articles.sql

package sqlc

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const articleColumns = `id, author_id, title, slug, description, content, cover_image, status, category, tags, views, likes, word_count, published_at, created_at, updated_at`

const articleWithAuthorColumns = `a.id, a.author_id, a.title, a.slug, a.description, a.content, a.cover_image, a.status, a.category, a.tags,
       a.views, a.likes, a.word_count, a.published_at, a.created_at, a.updated_at,
       u.username AS author_username, u.email AS author_email, u.avatar_url AS author_avatar_url`

// ArticleWithAuthorRow is shared by every query that joins the author.
type ArticleWithAuthorRow struct {
	Article
	AuthorUsername  string
	AuthorEmail     string
	AuthorAvatarUrl sql.NullString
}

type rowScanner interface {
	Scan(...interface{}) error
}

func articleDest(i *Article) []interface{} {
	return []interface{}{
		&i.ID,
		&i.AuthorID,
		&i.Title,
		&i.Slug,
		&i.Description,
		&i.Content,
		&i.CoverImage,
		&i.Status,
		&i.Category,
		pq.Array(&i.Tags),
		&i.Views,
		&i.Likes,
		&i.WordCount,
		&i.PublishedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	}
}

func scanArticle(row rowScanner, i *Article) error {
	return row.Scan(articleDest(i)...)
}

func scanArticleWithAuthor(row rowScanner, i *ArticleWithAuthorRow) error {
	dest := append(articleDest(&i.Article), &i.AuthorUsername, &i.AuthorEmail, &i.AuthorAvatarUrl)
	return row.Scan(dest...)
}

func collectArticlesWithAuthor(rows *sql.Rows) ([]ArticleWithAuthorRow, error) {
	defer rows.Close()
	var items []ArticleWithAuthorRow
	for rows.Next() {
		var i ArticleWithAuthorRow
		if err := scanArticleWithAuthor(rows, &i); err != nil {
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

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

const createArticle = `-- name: CreateArticle :one
INSERT INTO articles (id, author_id, title, slug, description, content, cover_image, status, category, tags, word_count, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + articleColumns

type CreateArticleParams struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	Title       string
	Slug        string
	Description string
	Content     json.RawMessage
	CoverImage  sql.NullString
	Status      string
	Category    string
	Tags        []string
	WordCount   int32
	PublishedAt sql.NullTime
}

func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, createArticle,
		arg.ID,
		arg.AuthorID,
		arg.Title,
		arg.Slug,
		arg.Description,
		string(arg.Content),
		arg.CoverImage,
		arg.Status,
		arg.Category,
		pq.Array(nonNilTags(arg.Tags)),
		arg.WordCount,
		arg.PublishedAt,
	)
	var i Article
	err := scanArticle(row, &i)
	return i, err
}

const getArticleByID = `-- name: GetArticleByID :one
SELECT ` + articleWithAuthorColumns + `
FROM articles a
JOIN users u ON u.id = a.author_id
WHERE a.id = $1`

func (q *Queries) GetArticleByID(ctx context.Context, id uuid.UUID) (ArticleWithAuthorRow, error) {
	row := q.db.QueryRowContext(ctx, getArticleByID, id)
	var i ArticleWithAuthorRow
	err := scanArticleWithAuthor(row, &i)
	return i, err
}

const getArticlesByIDs = `-- name: GetArticlesByIDs :many
SELECT ` + articleColumns + `
FROM articles
WHERE id = ANY($1::uuid[])`

func (q *Queries) GetArticlesByIDs(ctx context.Context, ids []uuid.UUID) ([]Article, error) {
	rows, err := q.db.QueryContext(ctx, getArticlesByIDs, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Article
	for rows.Next() {
		var i Article
		if err := scanArticle(rows, &i); err != nil {
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

const updateArticle = `-- name: UpdateArticle :one
UPDATE articles
SET title = $2, description = $3, content = $4, cover_image = $5, status = $6,
    category = $7, tags = $8, word_count = $9, published_at = $10, updated_at = now()
WHERE id = $1
RETURNING ` + articleColumns

type UpdateArticleParams struct {
	ID          uuid.UUID
	Title       string
	Description string
	Content     json.RawMessage
	CoverImage  sql.NullString
	Status      string
	Category    string
	Tags        []string
	WordCount   int32
	PublishedAt sql.NullTime
}

func (q *Queries) UpdateArticle(ctx context.Context, arg UpdateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, updateArticle,
		arg.ID,
		arg.Title,
		arg.Description,
		string(arg.Content),
		arg.CoverImage,
		arg.Status,
		arg.Category,
		pq.Array(nonNilTags(arg.Tags)),
		arg.WordCount,
		arg.PublishedAt,
	)
	var i Article
	err := scanArticle(row, &i)
	return i, err
}

const updateArticleStatus = `-- name: UpdateArticleStatus :one
UPDATE articles
SET status = $2,
    published_at = CASE WHEN $2 = 'published' THEN COALESCE(published_at, now()) ELSE published_at END,
    updated_at = now()
WHERE id = $1
RETURNING ` + articleColumns

type UpdateArticleStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateArticleStatus(ctx context.Context, arg UpdateArticleStatusParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, updateArticleStatus, arg.ID, arg.Status)
	var i Article
	err := scanArticle(row, &i)
	return i, err
}

const updateArticleCategory = `-- name: UpdateArticleCategory :one
UPDATE articles SET category = $2, updated_at = now()
WHERE id = $1
RETURNING ` + articleColumns

type UpdateArticleCategoryParams struct {
	ID       uuid.UUID
	Category string
}

func (q *Queries) UpdateArticleCategory(ctx context.Context, arg UpdateArticleCategoryParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, updateArticleCategory, arg.ID, arg.Category)
	var i Article
	err := scanArticle(row, &i)
	return i, err
}

const deleteArticle = `-- name: DeleteArticle :execrows
DELETE FROM articles WHERE id = $1`

func (q *Queries) DeleteArticle(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteArticle, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const incrementArticleViews = `-- name: IncrementArticleViews :one
UPDATE articles SET views = views + 1 WHERE id = $1 AND status = 'published' RETURNING views`

func (q *Queries) IncrementArticleViews(ctx context.Context, id uuid.UUID) (int64, error) {
	row := q.db.QueryRowContext(ctx, incrementArticleViews, id)
	var views int64
	err := row.Scan(&views)
	return views, err
}

const incrementArticleLikes = `-- name: IncrementArticleLikes :one
UPDATE articles SET likes = likes + 1 WHERE id = $1 RETURNING likes`

func (q *Queries) IncrementArticleLikes(ctx context.Context, id uuid.UUID) (int64, error) {
	row := q.db.QueryRowContext(ctx, incrementArticleLikes, id)
	var likes int64
	err := row.Scan(&likes)
	return likes, err
}

const articleFilter = `
WHERE (CASE WHEN $1::boolean
            THEN a.status = 'published' OR (a.status = 'draft' AND a.author_id = $2::uuid)
            ELSE a.status = $3::text END)
  AND ($4::text IS NULL OR a.search_vector @@ plainto_tsquery('english', $4::text))
  AND ($5::text IS NULL OR a.category = $5::text)
  AND (cardinality($6::text[]) = 0 OR a.tags && $6::text[])`

const listArticles = `-- name: ListArticles :many
SELECT ` + articleWithAuthorColumns + `
FROM articles a
JOIN users u ON u.id = a.author_id` + articleFilter + `
ORDER BY
  CASE WHEN $7::text = 'oldest' THEN a.created_at END ASC,
  CASE WHEN $7::text = 'popular' THEN a.views END DESC,
  CASE WHEN $7::text = 'trending' THEN a.likes END DESC,
  a.created_at DESC
LIMIT $8 OFFSET $9`

type ListArticlesParams struct {
	OwnDrafts bool
	ViewerID  uuid.NullUUID
	Status    string
	Search    sql.NullString
	Category  sql.NullString
	Tags      []string
	SortKey   string
	Lim       int32
	Off       int32
}

func (q *Queries) ListArticles(ctx context.Context, arg ListArticlesParams) ([]ArticleWithAuthorRow, error) {
	rows, err := q.db.QueryContext(ctx, listArticles,
		arg.OwnDrafts,
		arg.ViewerID,
		arg.Status,
		arg.Search,
		arg.Category,
		pq.Array(nonNilTags(arg.Tags)),
		arg.SortKey,
		arg.Lim,
		arg.Off,
	)
	if err != nil {
		return nil, err
	}
	return collectArticlesWithAuthor(rows)
}

const countArticles = `-- name: CountArticles :one
SELECT COUNT(*)::bigint
FROM articles a` + articleFilter

type CountArticlesParams struct {
	OwnDrafts bool
	ViewerID  uuid.NullUUID
	Status    string
	Search    sql.NullString
	Category  sql.NullString
	Tags      []string
}

func (q *Queries) CountArticles(ctx context.Context, arg CountArticlesParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countArticles,
		arg.OwnDrafts,
		arg.ViewerID,
		arg.Status,
		arg.Search,
		arg.Category,
		pq.Array(nonNilTags(arg.Tags)),
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listArticleCategories = `-- name: ListArticleCategories :many
SELECT DISTINCT category FROM articles
WHERE status = 'published' AND category <> ''
ORDER BY category`

func (q *Queries) ListArticleCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listArticleCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		items = append(items, category)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPopularTags = `-- name: ListPopularTags :many
SELECT tag::text AS tag, COUNT(*)::bigint AS count
FROM articles, unnest(tags) AS tag
WHERE status = 'published'
GROUP BY tag
ORDER BY count DESC, tag ASC
LIMIT $1`

type ListPopularTagsRow struct {
	Tag   string
	Count int64
}

func (q *Queries) ListPopularTags(ctx context.Context, limit int32) ([]ListPopularTagsRow, error) {
	rows, err := q.db.QueryContext(ctx, listPopularTags, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPopularTagsRow
	for rows.Next() {
		var i ListPopularTagsRow
		if err := rows.Scan(&i.Tag, &i.Count); err != nil {
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

const adminListArticles = `-- name: AdminListArticles :many
SELECT ` + articleWithAuthorColumns + `
FROM articles a
JOIN users u ON u.id = a.author_id
ORDER BY a.created_at DESC`

func (q *Queries) AdminListArticles(ctx context.Context) ([]ArticleWithAuthorRow, error) {
	rows, err := q.db.QueryContext(ctx, adminListArticles)
	if err != nil {
		return nil, err
	}
	return collectArticlesWithAuthor(rows)
}
