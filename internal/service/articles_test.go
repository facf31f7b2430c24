package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/config"
	"inquill/internal/db/sqlc"
	"inquill/internal/policy"
	"inquill/internal/repository"
	"inquill/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleContent = `{"time":1,"blocks":[{"id":"a","type":"paragraph","data":{"text":"Clinical <b>trial</b> results<script>alert(1)</script>"}}],"version":"2.28"}`

type articlesFixture struct {
	store    *repository.Store
	svc      *service.ArticlesService
	images   *fakeImages
	writer   auth.User
	reviewer auth.User
	admin    auth.User
	reader   auth.User
}

func newArticlesFixture(t *testing.T) articlesFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	images := &fakeImages{}
	site := config.NewStaticManager(nil)
	uploads := service.NewUploadsService(images, site)
	return articlesFixture{
		store:    store,
		svc:      service.NewArticlesService(store, site, uploads, service.NewLogsService(store)),
		images:   images,
		writer:   seedUser(t, store, "writer", policy.RoleWriter),
		reviewer: seedUser(t, store, "reviewer", policy.RoleWriter),
		admin:    seedUser(t, store, "admin", policy.RoleAdmin),
		reader:   seedUser(t, store, "reader", policy.RoleUser),
	}
}

func (f articlesFixture) create(t *testing.T, author auth.User, title, status string) api.Article {
	t.Helper()
	a, err := f.svc.Create(context.Background(), author, api.ArticleInput{
		Title:   title,
		Content: json.RawMessage(simpleContent),
		Status:  status,
	})
	require.NoError(t, err)
	return a
}

func TestArticles_CreateRequiresWriter(t *testing.T) {
	f := newArticlesFixture(t)
	_, err := f.svc.Create(context.Background(), f.reader, api.ArticleInput{Title: "Sepsis", Content: json.RawMessage(simpleContent)})
	requireStatus(t, err, http.StatusForbidden)

	a := f.create(t, f.writer, "Sepsis outcomes", "")
	assert.Equal(t, "draft", a.Status)
	assert.Equal(t, f.writer.ID, a.Author.ID)
	assert.True(t, strings.HasPrefix(a.Slug, "sepsis-outcomes-"))
	assert.Nil(t, a.PublishedAt)
}

func TestArticles_CreateValidation(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.writer, api.ArticleInput{Title: "  ab ", Content: json.RawMessage(simpleContent)})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, f.writer, api.ArticleInput{Title: "Valid title", Content: json.RawMessage(`"just text"`)})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = f.svc.Create(ctx, f.writer, api.ArticleInput{Title: "Valid title", Content: json.RawMessage(simpleContent), Status: "rejected"})
	requireStatus(t, err, http.StatusBadRequest)

	a, err := f.svc.Create(ctx, f.writer, api.ArticleInput{Title: "Valid title", Content: json.RawMessage(simpleContent), Status: "Published"})
	require.NoError(t, err)
	assert.Equal(t, "published", a.Status)
	assert.NotNil(t, a.PublishedAt)
}

func TestArticles_CreateSanitisesAndCountsWords(t *testing.T) {
	f := newArticlesFixture(t)
	a, err := f.svc.Create(context.Background(), f.writer, api.ArticleInput{
		Title:       "Sanitised",
		Description: ptr("<img src=x onerror=alert(1)>Short summary"),
		Content:     json.RawMessage(simpleContent),
		Tags:        []string{" cardiology ", "cardiology", ""},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(a.Content), "<script>")
	assert.Contains(t, string(a.Content), "trial")
	assert.Equal(t, int32(3), a.WordCount)
	assert.Equal(t, "Short summary", a.Description)
	assert.Equal(t, []string{"cardiology"}, a.Tags)
}

func TestArticles_InlineImagesAreHosted(t *testing.T) {
	f := newArticlesFixture(t)
	content := fmt.Sprintf(`{"blocks":[{"type":"image","data":{"file":{"url":%q},"caption":"Figure one"}}]}`, pngDataURI(t, 4, 4))

	a, err := f.svc.Create(context.Background(), f.writer, api.ArticleInput{
		Title:      "Imaging study",
		Content:    json.RawMessage(content),
		CoverImage: pngDataURI(t, 3000, 1000),
	})
	require.NoError(t, err)
	assert.NotContains(t, string(a.Content), "data:image")
	assert.Contains(t, string(a.Content), "https://cdn.inquill.test/inquill/content/")
	assert.True(t, strings.HasPrefix(a.CoverImage, "https://cdn.inquill.test/inquill/covers/"))
	assert.Equal(t, int32(2), a.WordCount)
}

func TestArticles_BlockUploadFailureKeepsBlock(t *testing.T) {
	f := newArticlesFixture(t)
	f.images.failOn = "/content/"
	uri := pngDataURI(t, 2, 2)
	content := fmt.Sprintf(`{"blocks":[{"type":"image","data":{"file":{"url":%q}}}]}`, uri)

	a, err := f.svc.Create(context.Background(), f.writer, api.ArticleInput{Title: "Partial", Content: json.RawMessage(content)})
	require.NoError(t, err)
	assert.Contains(t, string(a.Content), "data:image/png;base64,")
}

func TestArticles_CoverUploadFailureAbortsSave(t *testing.T) {
	f := newArticlesFixture(t)
	f.images.failOn = "/covers/"

	_, err := f.svc.Create(context.Background(), f.writer, api.ArticleInput{
		Title:      "Cover fails",
		Content:    json.RawMessage(simpleContent),
		CoverImage: pngDataURI(t, 2, 2),
	})
	requireStatus(t, err, http.StatusBadRequest)

	n, err := f.store.Q.CountArticles(context.Background(), sqlc.CountArticlesParams{Status: "draft"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestArticles_ListPaginationProperty(t *testing.T) {
	f := newArticlesFixture(t)
	for i := 0; i < 23; i++ {
		f.create(t, f.writer, fmt.Sprintf("Published article %d", i), "published")
	}
	f.create(t, f.writer, "Hidden draft", "draft")

	for _, limit := range []int{1, 5, 10, 23, 50} {
		res, err := f.svc.List(context.Background(), nil, service.ArticleQuery{Limit: limit, Page: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 23, res.TotalArticles)
		assert.Equal(t, int(math.Ceil(23/float64(limit))), res.TotalPages, "limit %d", limit)
		assert.LessOrEqual(t, len(res.Articles), limit)
		assert.Equal(t, 2, res.CurrentPage)
	}

	res, err := f.svc.List(context.Background(), nil, service.ArticleQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, res.Articles, 23)
	assert.Equal(t, 1, res.TotalPages)
}

func TestArticles_ListPagePastTheEnd(t *testing.T) {
	f := newArticlesFixture(t)
	f.create(t, f.writer, "Only article", "published")

	for _, page := range []int{2, math.MaxInt32, math.MaxInt} {
		res, err := f.svc.List(context.Background(), nil, service.ArticleQuery{Page: page, Limit: 10})
		require.NoError(t, err, "page %d", page)
		assert.Empty(t, res.Articles)
		assert.NotNil(t, res.Articles)
		assert.EqualValues(t, 1, res.TotalArticles)
		assert.Equal(t, 1, res.TotalPages)
		assert.Equal(t, page, res.CurrentPage)
	}
}

func TestArticles_ListStatusAll(t *testing.T) {
	f := newArticlesFixture(t)
	f.create(t, f.writer, "Public piece", "published")
	f.create(t, f.writer, "Writer draft", "draft")
	f.create(t, f.reviewer, "Other draft", "draft")
	f.create(t, f.writer, "Writer pending", "pending")

	own, err := f.svc.List(context.Background(), &f.writer, service.ArticleQuery{Status: "all"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, own.TotalArticles)

	anon, err := f.svc.List(context.Background(), nil, service.ArticleQuery{Status: "all"})
	require.NoError(t, err)
	assert.Zero(t, anon.TotalArticles)
}

func TestArticles_ListFiltersAndFacets(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()
	mk := func(title, category string, tags ...string) {
		_, err := f.svc.Create(ctx, f.writer, api.ArticleInput{
			Title: title, Content: json.RawMessage(simpleContent), Status: "published",
			Category: ptr(category), Tags: tags,
		})
		require.NoError(t, err)
	}
	mk("Heart failure therapy", "Cardiology", "heart", "therapy")
	mk("Arrhythmia review", "Cardiology", "heart")
	mk("Glioma imaging", "Oncology", "brain")

	res, err := f.svc.List(ctx, nil, service.ArticleQuery{Category: "Cardiology"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalArticles)

	res, err = f.svc.List(ctx, nil, service.ArticleQuery{Tags: service.ParseTags("brain, therapy")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalArticles)

	res, err = f.svc.List(ctx, nil, service.ArticleQuery{Search: "glioma"})
	require.NoError(t, err)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "Glioma imaging", res.Articles[0].Title)

	assert.Equal(t, []string{"Cardiology", "Oncology"}, res.Categories)
	require.NotEmpty(t, res.PopularTags)
	assert.Equal(t, api.TagCount{Tag: "heart", Count: 2}, res.PopularTags[0])
}

func TestArticles_GetDraftVisibility(t *testing.T) {
	f := newArticlesFixture(t)
	draft := f.create(t, f.writer, "Secret draft", "draft")
	ctx := context.Background()

	_, err := f.svc.Get(ctx, nil, draft.ID)
	requireStatus(t, err, http.StatusForbidden)
	_, err = f.svc.Get(ctx, &f.reviewer, draft.ID)
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.svc.Get(ctx, &f.writer, draft.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, &f.admin, draft.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, nil, uuid.New())
	requireStatus(t, err, http.StatusNotFound)
}

func TestArticles_EveryReadCountsAView(t *testing.T) {
	f := newArticlesFixture(t)
	pub := f.create(t, f.writer, "Popular piece", "published")
	draft := f.create(t, f.writer, "Quiet draft", "draft")

	for i := 1; i <= 5; i++ {
		got, err := f.svc.Get(context.Background(), nil, pub.ID)
		require.NoError(t, err)
		assert.EqualValues(t, i, got.Article.Views)
	}
	got, err := f.svc.Get(context.Background(), &f.writer, draft.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Article.Views)
}

func TestArticles_UpdateTransitions(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()
	a := f.create(t, f.writer, "Workflow", "draft")

	_, err := f.svc.Update(ctx, f.reviewer, a.ID, api.ArticleInput{Title: "Hijack"})
	requireStatus(t, err, http.StatusForbidden)

	up, err := f.svc.Update(ctx, f.writer, a.ID, api.ArticleInput{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, "pending", up.Status)
	assert.Equal(t, "Workflow", up.Title)

	// authors cannot push their own pending piece live
	_, err = f.svc.Update(ctx, f.writer, a.ID, api.ArticleInput{Status: "published"})
	requireStatus(t, err, http.StatusForbidden)

	rej, err := f.svc.Reject(ctx, f.reviewer, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", rej.Status)

	_, err = f.svc.Update(ctx, f.writer, a.ID, api.ArticleInput{Status: "published"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestArticles_UpdateRequiresWriterRole(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()
	a := f.create(t, f.writer, "Before demotion", "draft")

	demoted := f.writer
	demoted.Role = policy.RoleUser
	_, err := f.svc.Update(ctx, demoted, a.ID, api.ArticleInput{Status: "published"})
	requireStatus(t, err, http.StatusForbidden)
	_, err = f.svc.Update(ctx, demoted, a.ID, api.ArticleInput{Title: "Quiet edit"})
	requireStatus(t, err, http.StatusForbidden)

	got, err := f.store.Q.GetArticleByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Status)
	assert.Equal(t, "Before demotion", got.Title)
}

func TestArticles_UpdateClearsOptionalFields(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, f.writer, api.ArticleInput{
		Title: "Clearable", Content: json.RawMessage(simpleContent),
		Description: ptr("Summary"), Category: ptr("Cardiology"),
	})
	require.NoError(t, err)

	kept, err := f.svc.Update(ctx, f.writer, a.ID, api.ArticleInput{Title: "Clearable again"})
	require.NoError(t, err)
	assert.Equal(t, "Summary", kept.Description)
	assert.Equal(t, "Cardiology", kept.Category)

	cleared, err := f.svc.Update(ctx, f.writer, a.ID, api.ArticleInput{Description: ptr(""), Category: ptr(" ")})
	require.NoError(t, err)
	assert.Empty(t, cleared.Description)
	assert.Empty(t, cleared.Category)
}

func TestArticles_ApproveSelfApproval(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()
	mine := f.create(t, f.writer, "Mine", "pending")

	_, err := f.svc.Approve(ctx, f.writer, mine.ID)
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.svc.Approve(ctx, f.reader, mine.ID)
	requireStatus(t, err, http.StatusForbidden)

	ok, err := f.svc.Approve(ctx, f.reviewer, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "published", ok.Status)
	assert.NotNil(t, ok.PublishedAt)

	adminOwn := f.create(t, f.admin, "Admin piece", "pending")
	_, err = f.svc.Approve(ctx, f.admin, adminOwn.ID)
	require.NoError(t, err)

	logs, err := service.NewLogsService(f.store).ListLogs(ctx, service.ListLogsParams{Action: "approve_article"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, logs.Total)
}

func TestArticles_BulkUpdateIsAllOrNothing(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()
	own := f.create(t, f.writer, "Own pending", "pending")
	other := f.create(t, f.reviewer, "Other pending", "pending")
	published := "Published"

	_, err := f.svc.BulkUpdate(ctx, f.writer, api.BulkArticleRequest{
		IDs:     []uuid.UUID{other.ID, own.ID},
		Updates: api.ArticleUpdates{Status: &published},
	})
	requireStatus(t, err, http.StatusForbidden)
	for _, id := range []uuid.UUID{own.ID, other.ID} {
		got, err := f.svc.Get(ctx, &f.admin, id)
		require.NoError(t, err)
		assert.Equal(t, "pending", got.Article.Status)
	}

	_, err = f.svc.BulkUpdate(ctx, f.admin, api.BulkArticleRequest{
		IDs:     []uuid.UUID{own.ID, uuid.New()},
		Updates: api.ArticleUpdates{Status: &published},
	})
	requireStatus(t, err, http.StatusBadRequest)

	category := "Neurology"
	res, err := f.svc.BulkUpdate(ctx, f.admin, api.BulkArticleRequest{
		IDs:     []uuid.UUID{own.ID, other.ID},
		Updates: api.ArticleUpdates{Status: &published, Category: &category},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	got, err := f.svc.Get(ctx, nil, own.ID)
	require.NoError(t, err)
	assert.Equal(t, "published", got.Article.Status)
	assert.Equal(t, "Neurology", got.Article.Category)
}

func TestArticles_DeleteCascadesComments(t *testing.T) {
	f := newArticlesFixture(t)
	ctx := context.Background()
	a := f.create(t, f.writer, "Short lived", "published")
	comments := service.NewCommentsService(f.store)
	_, err := comments.Create(ctx, f.reader, api.CommentInput{ArticleID: a.ID, Content: "Great read"})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.reader, a.ID)
	requireStatus(t, err, http.StatusForbidden)

	require.NoError(t, f.svc.Delete(ctx, f.writer, a.ID))
	_, err = f.svc.Get(ctx, nil, a.ID)
	requireStatus(t, err, http.StatusNotFound)
	n, err := f.store.Q.CountComments(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestArticles_Like(t *testing.T) {
	f := newArticlesFixture(t)
	a := f.create(t, f.writer, "Likeable", "published")
	for i := 1; i <= 3; i++ {
		res, err := f.svc.Like(context.Background(), a.ID)
		require.NoError(t, err)
		assert.EqualValues(t, i, res.Likes)
	}
	_, err := f.svc.Like(context.Background(), uuid.New())
	requireStatus(t, err, http.StatusNotFound)
}

func TestSlugify(t *testing.T) {
	slug, err := service.Slugify("Étude sur l'insuffisance cardiaque")
	require.NoError(t, err)
	assert.Regexp(t, `^etude-sur-l-insuffisance-cardiaque-[0-9a-f]{6}$`, slug)

	slug, err = service.Slugify("???")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(slug, "article-"))
}

func TestArticles_NoStore(t *testing.T) {
	svc := service.NewArticlesService(nil, nil, nil, nil)
	_, err := svc.List(context.Background(), nil, service.ArticleQuery{})
	requireStatus(t, err, http.StatusServiceUnavailable)
}
