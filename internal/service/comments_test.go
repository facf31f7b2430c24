package service_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"inquill/internal/api"
	"inquill/internal/db/sqlc"
	"inquill/internal/policy"
	"inquill/internal/repository"
	"inquill/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedArticle(t *testing.T, store *repository.Store, authorID uuid.UUID, slug string) uuid.UUID {
	t.Helper()
	a, err := store.Q.CreateArticle(context.Background(), sqlc.CreateArticleParams{
		ID:       uuid.New(),
		AuthorID: authorID,
		Title:    "Article " + slug,
		Slug:     slug,
		Content:  []byte(`{"blocks":[]}`),
		Status:   "published",
	})
	require.NoError(t, err)
	return a.ID
}

func TestComments_CreateAndThread(t *testing.T) {
	store := repository.NewMemoryStore()
	writer := seedUser(t, store, "writer", policy.RoleWriter)
	reader := seedUser(t, store, "reader", policy.RoleUser)
	articleID := seedArticle(t, store, writer.ID, "a")
	svc := service.NewCommentsService(store)
	ctx := context.Background()

	root, err := svc.Create(ctx, reader, api.CommentInput{ArticleID: articleID, Content: "  <b>Great</b> study  "})
	require.NoError(t, err)
	assert.Equal(t, "Great study", root.Content)
	assert.Equal(t, "reader", root.Author.Username)
	assert.Nil(t, root.ParentID)

	reply1, err := svc.Create(ctx, writer, api.CommentInput{ArticleID: articleID, ParentID: &root.ID, Content: "Thanks"})
	require.NoError(t, err)
	require.NotNil(t, reply1.ParentID)
	assert.Equal(t, root.ID, *reply1.ParentID)
	reply2, err := svc.Create(ctx, reader, api.CommentInput{ArticleID: articleID, ParentID: &root.ID, Content: "Welcome"})
	require.NoError(t, err)

	top, err := svc.ListByArticle(ctx, articleID)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, root.ID, top[0].ID)

	replies, err := svc.ListReplies(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, reply1.ID, replies[0].ID)
	assert.Equal(t, reply2.ID, replies[1].ID)

	_, err = svc.ListReplies(ctx, uuid.New())
	requireStatus(t, err, http.StatusNotFound)
	_, err = svc.ListByArticle(ctx, uuid.New())
	requireStatus(t, err, http.StatusNotFound)
}

func TestComments_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	writer := seedUser(t, store, "writer", policy.RoleWriter)
	a := seedArticle(t, store, writer.ID, "a")
	b := seedArticle(t, store, writer.ID, "b")
	svc := service.NewCommentsService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, writer, api.CommentInput{ArticleID: a, Content: "<script></script>"})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.Create(ctx, writer, api.CommentInput{ArticleID: a, Content: strings.Repeat("x", 2001)})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.Create(ctx, writer, api.CommentInput{ArticleID: uuid.New(), Content: "hi"})
	requireStatus(t, err, http.StatusNotFound)

	onB, err := svc.Create(ctx, writer, api.CommentInput{ArticleID: b, Content: "on b"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, writer, api.CommentInput{ArticleID: a, ParentID: &onB.ID, Content: "cross"})
	requireStatus(t, err, http.StatusBadRequest)

	missing := uuid.New()
	_, err = svc.Create(ctx, writer, api.CommentInput{ArticleID: a, ParentID: &missing, Content: "orphan"})
	requireStatus(t, err, http.StatusNotFound)
}

func TestComments_DeleteRemovesReplies(t *testing.T) {
	store := repository.NewMemoryStore()
	writer := seedUser(t, store, "writer", policy.RoleWriter)
	reader := seedUser(t, store, "reader", policy.RoleUser)
	admin := seedUser(t, store, "admin", policy.RoleAdmin)
	articleID := seedArticle(t, store, writer.ID, "a")
	svc := service.NewCommentsService(store)
	ctx := context.Background()

	root, err := svc.Create(ctx, reader, api.CommentInput{ArticleID: articleID, Content: "root"})
	require.NoError(t, err)
	reply, err := svc.Create(ctx, writer, api.CommentInput{ArticleID: articleID, ParentID: &root.ID, Content: "reply"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, reader, api.CommentInput{ArticleID: articleID, ParentID: &reply.ID, Content: "nested"})
	require.NoError(t, err)

	err = svc.Delete(ctx, writer, root.ID)
	requireStatus(t, err, http.StatusForbidden)

	require.NoError(t, svc.Delete(ctx, admin, root.ID))
	n, err := store.Q.CountComments(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = svc.Delete(ctx, admin, root.ID)
	requireStatus(t, err, http.StatusNotFound)
}
