package repository_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"inquill/internal/db/sqlc"
	"inquill/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkQuerier exercises the behaviour services depend on. It runs against
// the memory store here and against Postgres under the integration tag, so
// the two implementations cannot drift apart unnoticed. Every row it
// creates is scoped by fresh ids so a shared database does not disturb it.
func checkQuerier(t *testing.T, q sqlc.Querier) {
	ctx := context.Background()
	run := uuid.NewString()[:8]

	author, err := q.CreateUser(ctx, sqlc.CreateUserParams{
		ID: uuid.New(), Username: "q_" + run, Email: "q_" + run + "@inquill.test",
		PasswordHash: "x", Role: "writer", Status: "Active",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = q.DeleteUser(ctx, author.ID) })

	t.Run("unique email", func(t *testing.T) {
		_, err := q.CreateUser(ctx, sqlc.CreateUserParams{
			ID: uuid.New(), Username: "q2_" + run, Email: author.Email,
			PasswordHash: "x", Role: "user", Status: "Active",
		})
		var pgErr *pgconn.PgError
		require.True(t, errors.As(err, &pgErr), "got %v", err)
		assert.Equal(t, "23505", pgErr.Code)
	})

	category := "cat-" + run
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		a, err := q.CreateArticle(ctx, sqlc.CreateArticleParams{
			ID: uuid.New(), AuthorID: author.ID, Title: "Shared title", Slug: "shared-" + uuid.NewString(),
			Content: json.RawMessage(`{"blocks":[]}`), Status: "published", Category: category,
		})
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	t.Run("paging", func(t *testing.T) {
		filter := sqlc.ListArticlesParams{
			Status:   "published",
			Category: sql.NullString{String: category, Valid: true},
			SortKey:  "newest",
			Lim:      2,
		}
		n, err := q.CountArticles(ctx, sqlc.CountArticlesParams{
			Status: filter.Status, Category: filter.Category,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		first, err := q.ListArticles(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, first, 2)

		filter.Off = 2
		rest, err := q.ListArticles(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, rest, 1)

		filter.Off = 10
		past, err := q.ListArticles(ctx, filter)
		require.NoError(t, err)
		assert.Empty(t, past)

		filter.Off = -10
		_, err = q.ListArticles(ctx, filter)
		assert.Error(t, err)
	})

	t.Run("counters", func(t *testing.T) {
		views, err := q.IncrementArticleViews(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, int64(1), views)
		likes, err := q.IncrementArticleLikes(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, int64(1), likes)
	})

	t.Run("article delete cascades comments", func(t *testing.T) {
		c, err := q.CreateComment(ctx, sqlc.CreateCommentParams{
			ID: uuid.New(), ArticleID: ids[2], AuthorID: author.ID, Content: "shared",
		})
		require.NoError(t, err)
		n, err := q.DeleteArticle(ctx, ids[2])
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		_, err = q.GetCommentByID(ctx, c.ID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("newsletter sends once", func(t *testing.T) {
		nl, err := q.CreateNewsletter(ctx, sqlc.CreateNewsletterParams{ID: uuid.New(), Subject: "s", Content: "c"})
		require.NoError(t, err)
		_, err = q.MarkNewsletterSent(ctx, sqlc.MarkNewsletterSentParams{ID: nl.ID, Recipients: 1, OpenRate: "0%", ClickRate: "0%"})
		require.NoError(t, err)
		_, err = q.MarkNewsletterSent(ctx, sqlc.MarkNewsletterSentParams{ID: nl.ID, Recipients: 1, OpenRate: "0%", ClickRate: "0%"})
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestQuerier_Memory(t *testing.T) {
	checkQuerier(t, repository.NewMemoryStore().Q)
}
