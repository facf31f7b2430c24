package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/config"
	"inquill/internal/db/sqlc"
	"inquill/internal/logging"
	"inquill/internal/policy"
	"inquill/internal/repository"
	"inquill/internal/storage"

	"github.com/google/uuid"
)

const (
	minTitleLen  = 3
	maxTitleLen  = 200
	slugAttempts = 3
)

type ArticlesService struct {
	store   *repository.Store
	site    *config.Manager
	uploads *UploadsService
	logs    *LogsService
	content contentProcessor
}

func NewArticlesService(store *repository.Store, site *config.Manager, uploads *UploadsService, logs *LogsService) *ArticlesService {
	return &ArticlesService{
		store:   store,
		site:    site,
		uploads: uploads,
		logs:    logs,
		content: contentProcessor{uploads: uploads},
	}
}

// ArticleQuery is a parsed list request. Zero values select defaults.
type ArticleQuery struct {
	Page     int
	Limit    int
	Status   string
	Sort     string
	Search   string
	Category string
	Tags     []string
}

var sortKeys = map[string]bool{"newest": true, "oldest": true, "popular": true, "trending": true}

// ParseTags splits a comma separated tag filter.
func ParseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// List returns one page of articles. Signed-in callers asking for
// status=all see every published article plus their own drafts.
func (s *ArticlesService) List(ctx context.Context, viewer *auth.User, q ArticleQuery) (api.ArticleList, error) {
	if s.store == nil {
		return api.ArticleList{}, errNoStore
	}
	settings := siteSettings(s.site).Articles
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = settings.DefaultPageSize
	}
	if limit > settings.MaxPageSize {
		limit = settings.MaxPageSize
	}
	if limit < 1 {
		limit = 1
	}
	sortKey := strings.ToLower(strings.TrimSpace(q.Sort))
	if !sortKeys[sortKey] {
		sortKey = "newest"
	}

	filter := sqlc.CountArticlesParams{
		Search:   optionalText(strings.TrimSpace(q.Search)),
		Category: optionalText(strings.TrimSpace(q.Category)),
		Tags:     q.Tags,
	}
	status := strings.TrimSpace(q.Status)
	switch {
	case status == "":
		filter.Status = string(policy.StatusPublished)
	case strings.EqualFold(status, "all") && viewer != nil:
		filter.OwnDrafts = true
		filter.ViewerID = uuid.NullUUID{UUID: viewer.ID, Valid: true}
	default:
		if st, err := policy.ParseArticleStatus(status); err == nil {
			filter.Status = string(st)
		} else {
			// Unknown values, including anonymous "all", filter literally.
			filter.Status = strings.ToLower(status)
		}
	}

	total, err := s.store.Q.CountArticles(ctx, filter)
	if err != nil {
		return api.ArticleList{}, fmt.Errorf("count articles: %w", err)
	}
	// Pages past the end are empty, which also keeps the offset in range.
	totalPages := (total + int64(limit) - 1) / int64(limit)
	var rows []sqlc.ArticleWithAuthorRow
	if int64(page-1) < totalPages {
		rows, err = s.store.Q.ListArticles(ctx, sqlc.ListArticlesParams{
			OwnDrafts: filter.OwnDrafts,
			ViewerID:  filter.ViewerID,
			Status:    filter.Status,
			Search:    filter.Search,
			Category:  filter.Category,
			Tags:      filter.Tags,
			SortKey:   sortKey,
			Lim:       int32(limit),
			Off:       int32((page - 1) * limit),
		})
		if err != nil {
			return api.ArticleList{}, fmt.Errorf("list articles: %w", err)
		}
	}
	categories, err := s.store.Q.ListArticleCategories(ctx)
	if err != nil {
		return api.ArticleList{}, fmt.Errorf("list categories: %w", err)
	}
	tagRows, err := s.store.Q.ListPopularTags(ctx, int32(settings.PopularTagCount))
	if err != nil {
		return api.ArticleList{}, fmt.Errorf("list popular tags: %w", err)
	}

	if categories == nil {
		categories = []string{}
	}
	tags := make([]api.TagCount, 0, len(tagRows))
	for _, t := range tagRows {
		tags = append(tags, api.TagCount{Tag: t.Tag, Count: t.Count})
	}
	return api.ArticleList{
		Articles:      mapArticleRows(rows),
		TotalArticles: total,
		TotalPages:    int(totalPages),
		CurrentPage:   page,
		Categories:    categories,
		PopularTags:   tags,
	}, nil
}

func (s *ArticlesService) load(ctx context.Context, id uuid.UUID) (sqlc.ArticleWithAuthorRow, error) {
	row, err := s.store.Q.GetArticleByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return sqlc.ArticleWithAuthorRow{}, notFound("Article not found")
		}
		return sqlc.ArticleWithAuthorRow{}, err
	}
	return row, nil
}

func canView(viewer *auth.User, a sqlc.Article) bool {
	switch policy.ArticleStatus(a.Status) {
	case policy.StatusPublished:
		return true
	case policy.StatusDraft:
		return viewer != nil && (viewer.ID == a.AuthorID || viewer.Role.IsAdmin())
	default:
		return viewer != nil && (viewer.ID == a.AuthorID || viewer.Role.CanWrite())
	}
}

// Get returns an article with its top-level comments. Every read of a
// published article counts as a view.
func (s *ArticlesService) Get(ctx context.Context, viewer *auth.User, id uuid.UUID) (api.ArticleDetail, error) {
	if s.store == nil {
		return api.ArticleDetail{}, errNoStore
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return api.ArticleDetail{}, err
	}
	if !canView(viewer, row.Article) {
		return api.ArticleDetail{}, forbidden("Not authorized to view this article")
	}
	if row.Status == string(policy.StatusPublished) {
		views, err := s.store.Q.IncrementArticleViews(ctx, id)
		switch {
		case err == nil:
			row.Views = views
		case isNoRows(err):
			// unpublished between the read and the increment
		default:
			return api.ArticleDetail{}, fmt.Errorf("increment views: %w", err)
		}
	}
	comments, err := s.store.Q.ListTopLevelComments(ctx, id)
	if err != nil {
		return api.ArticleDetail{}, fmt.Errorf("list comments: %w", err)
	}
	return api.ArticleDetail{Article: mapArticleRow(row), Comments: mapComments(comments)}, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if len([]rune(title)) < minTitleLen {
		return "", invalid("Title must be at least 3 characters")
	}
	if len([]rune(title)) > maxTitleLen {
		return "", invalid("Title must be at most 200 characters")
	}
	return title, nil
}

func cleanTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(PlainText(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func cleanDescription(raw string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(raw))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// hostCover uploads an inline cover image. Unlike content images a failure
// here aborts the save.
func (s *ArticlesService) hostCover(ctx context.Context, cover string) (sql.NullString, error) {
	cover = strings.TrimSpace(cover)
	if cover == "" {
		return sql.NullString{}, nil
	}
	if !storage.IsImageDataURI(cover) {
		return sql.NullString{String: cover, Valid: true}, nil
	}
	res, err := s.uploads.UploadDataURI(ctx, cover, UploadCover)
	if err != nil {
		slog.WarnContext(ctx, "cover upload failed", "error", err)
		return sql.NullString{}, invalid("Cover image upload failed")
	}
	return sql.NullString{String: res.URL, Valid: true}, nil
}

var creatableStatuses = map[policy.ArticleStatus]bool{
	policy.StatusDraft:     true,
	policy.StatusPending:   true,
	policy.StatusPublished: true,
}

func (s *ArticlesService) Create(ctx context.Context, user auth.User, in api.ArticleInput) (api.Article, error) {
	if s.store == nil {
		return api.Article{}, errNoStore
	}
	if !user.Role.CanWrite() {
		return api.Article{}, forbidden("Only writers can create articles")
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return api.Article{}, err
	}
	status := policy.StatusDraft
	if strings.TrimSpace(in.Status) != "" {
		st, err := policy.ParseArticleStatus(in.Status)
		if err != nil || !creatableStatuses[st] {
			return api.Article{}, invalid("Status must be draft, pending or published")
		}
		status = st
	}
	content, err := s.content.process(ctx, in.Content)
	if err != nil {
		return api.Article{}, err
	}
	cover, err := s.hostCover(ctx, in.CoverImage)
	if err != nil {
		return api.Article{}, err
	}

	params := sqlc.CreateArticleParams{
		ID:          uuid.New(),
		AuthorID:    user.ID,
		Title:       title,
		Description: cleanDescription(deref(in.Description)),
		Content:     content.Content,
		CoverImage:  cover,
		Status:      string(status),
		Category:    strings.TrimSpace(deref(in.Category)),
		Tags:        cleanTags(in.Tags),
		WordCount:   content.WordCount,
	}
	if status == policy.StatusPublished {
		params.PublishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	var created sqlc.Article
	for attempt := 0; attempt < slugAttempts; attempt++ {
		if params.Slug, err = Slugify(title); err != nil {
			return api.Article{}, err
		}
		created, err = s.store.Q.CreateArticle(ctx, params)
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return api.Article{}, fmt.Errorf("create article: %w", err)
	}
	logging.Audit(ctx, "article.create", logging.OutcomeSuccess,
		slog.String("article_id", created.ID.String()),
		slog.String("status", created.Status))
	return mapArticle(created, api.Author{ID: user.ID, Username: user.Username}), nil
}

func (s *ArticlesService) Update(ctx context.Context, user auth.User, id uuid.UUID, in api.ArticleInput) (api.Article, error) {
	if s.store == nil {
		return api.Article{}, errNoStore
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return api.Article{}, err
	}
	if row.AuthorID != user.ID && !user.Role.IsAdmin() {
		return api.Article{}, forbidden("Not authorized to update this article")
	}
	if !user.Role.CanWrite() {
		return api.Article{}, forbidden("Only writers can update articles")
	}

	params := sqlc.UpdateArticleParams{
		ID:          id,
		Title:       row.Title,
		Description: row.Description,
		Content:     row.Content,
		CoverImage:  row.CoverImage,
		Status:      row.Status,
		Category:    row.Category,
		Tags:        row.Tags,
		WordCount:   row.WordCount,
		PublishedAt: row.PublishedAt,
	}
	if strings.TrimSpace(in.Title) != "" {
		if params.Title, err = validateTitle(in.Title); err != nil {
			return api.Article{}, err
		}
	}
	if strings.TrimSpace(in.Status) != "" {
		next, err := policy.ParseArticleStatus(in.Status)
		if err != nil {
			return api.Article{}, invalid(err.Error())
		}
		from := policy.ArticleStatus(row.Status)
		if err := policy.Transition(from, next); err != nil {
			return api.Article{}, invalid(err.Error())
		}
		if next == policy.StatusPublished && (from == policy.StatusPending || from == policy.StatusUnderReview) {
			target := policy.Target{ID: id.String(), OwnerID: row.AuthorID.String()}
			if err := policy.CanAct(user.Actor(), target, policy.ActionApprove); err != nil {
				return api.Article{}, policyError(err)
			}
		}
		params.Status = string(next)
		if next == policy.StatusPublished && !params.PublishedAt.Valid {
			params.PublishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		}
	}
	if len(in.Content) > 0 {
		content, err := s.content.process(ctx, in.Content)
		if err != nil {
			return api.Article{}, err
		}
		params.Content = content.Content
		params.WordCount = content.WordCount
	}
	if strings.TrimSpace(in.CoverImage) != "" {
		if params.CoverImage, err = s.hostCover(ctx, in.CoverImage); err != nil {
			return api.Article{}, err
		}
	}
	if in.Description != nil {
		params.Description = cleanDescription(*in.Description)
	}
	if in.Category != nil {
		params.Category = strings.TrimSpace(*in.Category)
	}
	if in.Tags != nil {
		params.Tags = cleanTags(in.Tags)
	}

	updated, err := s.store.Q.UpdateArticle(ctx, params)
	if err != nil {
		if isNoRows(err) {
			return api.Article{}, notFound("Article not found")
		}
		return api.Article{}, fmt.Errorf("update article: %w", err)
	}
	return mapArticle(updated, api.Author{ID: row.AuthorID, Username: row.AuthorUsername, AvatarURL: row.AuthorAvatarUrl.String}), nil
}

// Delete removes the article's comments and then the article. The two
// steps are not atomic; a failure in between leaves the article without
// comments.
func (s *ArticlesService) Delete(ctx context.Context, user auth.User, id uuid.UUID) error {
	if s.store == nil {
		return errNoStore
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if row.AuthorID != user.ID && !user.Role.IsAdmin() {
		return forbidden("Not authorized to delete this article")
	}
	if _, err := s.store.Q.DeleteCommentsByArticle(ctx, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	n, err := s.store.Q.DeleteArticle(ctx, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n == 0 {
		return notFound("Article not found")
	}
	s.record(ctx, nil, user, "delete_article", "article", id.String(), map[string]any{"title": row.Title})
	logging.Audit(ctx, "article.delete", logging.OutcomeSuccess, slog.String("article_id", id.String()))
	return nil
}

func (s *ArticlesService) Like(ctx context.Context, id uuid.UUID) (api.LikeResponse, error) {
	if s.store == nil {
		return api.LikeResponse{}, errNoStore
	}
	likes, err := s.store.Q.IncrementArticleLikes(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return api.LikeResponse{}, notFound("Article not found")
		}
		return api.LikeResponse{}, err
	}
	return api.LikeResponse{Likes: likes}, nil
}

func (s *ArticlesService) Approve(ctx context.Context, user auth.User, id uuid.UUID) (api.Article, error) {
	return s.moderate(ctx, user, id, policy.ActionApprove, policy.StatusPublished)
}

func (s *ArticlesService) Reject(ctx context.Context, user auth.User, id uuid.UUID) (api.Article, error) {
	return s.moderate(ctx, user, id, policy.ActionReject, policy.StatusRejected)
}

func (s *ArticlesService) moderate(ctx context.Context, user auth.User, id uuid.UUID, action policy.Action, to policy.ArticleStatus) (api.Article, error) {
	if s.store == nil {
		return api.Article{}, errNoStore
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return api.Article{}, err
	}
	target := policy.Target{ID: id.String(), OwnerID: row.AuthorID.String()}
	if err := policy.CanAct(user.Actor(), target, action); err != nil {
		logging.Audit(ctx, "article."+string(action), "denied", slog.String("article_id", id.String()))
		return api.Article{}, policyError(err)
	}
	if err := policy.Transition(policy.ArticleStatus(row.Status), to); err != nil {
		return api.Article{}, invalid(err.Error())
	}
	updated, err := s.store.Q.UpdateArticleStatus(ctx, sqlc.UpdateArticleStatusParams{ID: id, Status: string(to)})
	if err != nil {
		return api.Article{}, fmt.Errorf("update status: %w", err)
	}
	s.record(ctx, nil, user, string(action)+"_article", "article", id.String(), map[string]any{"from": row.Status, "to": string(to)})
	logging.Audit(ctx, "article."+string(action), logging.OutcomeSuccess, slog.String("article_id", id.String()))
	return mapArticle(updated, api.Author{ID: row.AuthorID, Username: row.AuthorUsername, AvatarURL: row.AuthorAvatarUrl.String}), nil
}

// BulkUpdate applies status and/or category to every article in the batch
// or to none of them.
func (s *ArticlesService) BulkUpdate(ctx context.Context, user auth.User, req api.BulkArticleRequest) (api.BulkResponse, error) {
	if s.store == nil {
		return api.BulkResponse{}, errNoStore
	}
	if !user.Role.CanWrite() {
		return api.BulkResponse{}, forbidden("Not authorized to update articles")
	}
	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 {
		return api.BulkResponse{}, invalid("ids required")
	}
	if req.Updates.Status == nil && req.Updates.Category == nil {
		return api.BulkResponse{}, invalid("updates required")
	}
	var status policy.ArticleStatus
	if req.Updates.Status != nil {
		st, err := policy.ParseArticleStatus(*req.Updates.Status)
		if err != nil {
			return api.BulkResponse{}, invalid(err.Error())
		}
		status = st
	}

	err := s.store.WithTx(ctx, func(q sqlc.Querier) error {
		articles, err := q.GetArticlesByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(articles) != len(ids) {
			return invalid("One or more articles not found")
		}
		for _, a := range articles {
			if status == "" {
				continue
			}
			from := policy.ArticleStatus(a.Status)
			if err := policy.Transition(from, status); err != nil {
				return invalid(err.Error())
			}
			if status == policy.StatusPublished && from != policy.StatusPublished {
				target := policy.Target{ID: a.ID.String(), OwnerID: a.AuthorID.String()}
				if err := policy.CanAct(user.Actor(), target, policy.ActionApprove); err != nil {
					return policyError(err)
				}
			}
		}
		for _, a := range articles {
			if status != "" {
				if _, err := q.UpdateArticleStatus(ctx, sqlc.UpdateArticleStatusParams{ID: a.ID, Status: string(status)}); err != nil {
					return err
				}
			}
			if req.Updates.Category != nil {
				if _, err := q.UpdateArticleCategory(ctx, sqlc.UpdateArticleCategoryParams{ID: a.ID, Category: strings.TrimSpace(*req.Updates.Category)}); err != nil {
					return err
				}
			}
		}
		if s.logs == nil {
			return nil
		}
		_, err = s.logs.CreateLog(ctx, q, CreateLogParams{
			AdminUserID: user.ID,
			Action:      "bulk_update_articles",
			TargetType:  "article",
			TargetID:    joinIDs(ids),
			Details:     map[string]any{"count": len(ids), "updates": req.Updates},
		})
		return err
	})
	if err != nil {
		if se, ok := AsError(err); ok {
			logging.Audit(ctx, "article.bulk_update", "denied", slog.String("reason", se.Message))
		}
		return api.BulkResponse{}, err
	}
	logging.Audit(ctx, "article.bulk_update", logging.OutcomeSuccess, slog.Int("count", len(ids)))
	return api.BulkResponse{Updated: len(ids)}, nil
}

func (s *ArticlesService) record(ctx context.Context, q sqlc.Querier, user auth.User, action, targetType, targetID string, details map[string]any) {
	if s.logs == nil {
		return
	}
	if _, err := s.logs.CreateLog(ctx, q, CreateLogParams{
		AdminUserID: user.ID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Details:     details,
	}); err != nil {
		logging.Error(ctx, "moderation log write failed", err, slog.String("action", action))
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// policyError maps a policy decision to a 403 carrying its message.
func policyError(err error) error {
	if err == nil {
		return nil
	}
	return forbidden(err.Error())
}
