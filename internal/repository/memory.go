package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"inquill/internal/db/sqlc"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Memory is a process-local sqlc.Querier used when no DATABASE_URL is set
// and by tests. It mirrors the constraints of the Postgres schema that the
// services rely on: unique email and username, cascading deletes and the
// conditional newsletter send.
type Memory struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data memoryData
	last time.Time
}

type memoryData struct {
	users       map[uuid.UUID]sqlc.User
	articles    map[uuid.UUID]sqlc.Article
	comments    map[uuid.UUID]sqlc.Comment
	newsletters map[uuid.UUID]sqlc.Newsletter
	logs        []sqlc.ModerationLog
	touched     map[string]time.Time
}

var _ sqlc.Querier = (*Memory)(nil)

// NewMemoryStore returns a Store backed by an empty Memory querier.
func NewMemoryStore() *Store {
	m := NewMemory()
	return &Store{Q: m, txFn: m.withTx}
}

func NewMemory() *Memory {
	return &Memory{data: memoryData{
		users:       map[uuid.UUID]sqlc.User{},
		articles:    map[uuid.UUID]sqlc.Article{},
		comments:    map[uuid.UUID]sqlc.Comment{},
		newsletters: map[uuid.UUID]sqlc.Newsletter{},
		touched:     map[string]time.Time{},
	}}
}

// withTx serializes transactions and restores the snapshot when fn fails.
func (m *Memory) withTx(ctx context.Context, fn func(q sqlc.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.data.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.data = snap
		m.mu.Unlock()
		return err
	}
	return ctx.Err()
}

func (d memoryData) clone() memoryData {
	out := memoryData{
		users:       make(map[uuid.UUID]sqlc.User, len(d.users)),
		articles:    make(map[uuid.UUID]sqlc.Article, len(d.articles)),
		comments:    make(map[uuid.UUID]sqlc.Comment, len(d.comments)),
		newsletters: make(map[uuid.UUID]sqlc.Newsletter, len(d.newsletters)),
		logs:        append([]sqlc.ModerationLog(nil), d.logs...),
		touched:     make(map[string]time.Time, len(d.touched)),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.articles {
		out.articles[k] = v
	}
	for k, v := range d.comments {
		out.comments[k] = v
	}
	for k, v := range d.newsletters {
		out.newsletters[k] = v
	}
	for k, v := range d.touched {
		out.touched[k] = v
	}
	return out
}

// now returns strictly increasing timestamps so ordering by creation time is
// stable. Callers hold m.mu.
func (m *Memory) now() time.Time {
	t := time.Now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *Memory) touch(table string) {
	m.data.touched[table] = m.last
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{
		Code:           "23505",
		Message:        fmt.Sprintf("duplicate key value violates unique constraint %q", constraint),
		ConstraintName: constraint,
	}
}

func copyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func copyJSON(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func copyArticle(a sqlc.Article) sqlc.Article {
	a.Tags = copyTags(a.Tags)
	a.Content = copyJSON(a.Content)
	return a
}

// Users

func (m *Memory) CreateUser(_ context.Context, arg sqlc.CreateUserParams) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.data.users {
		if u.Email == arg.Email {
			return sqlc.User{}, uniqueViolation("users_email_key")
		}
		if u.Username == arg.Username {
			return sqlc.User{}, uniqueViolation("users_username_key")
		}
	}
	u := sqlc.User{
		ID:           arg.ID,
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		Status:       arg.Status,
		CreatedAt:    m.now(),
	}
	m.data.users[u.ID] = u
	m.touch("users")
	return u, nil
}

func (m *Memory) GetUserByID(_ context.Context, id uuid.UUID) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[id]
	if !ok {
		return sqlc.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.data.users {
		if u.Email == email {
			return u, nil
		}
	}
	return sqlc.User{}, sql.ErrNoRows
}

func (m *Memory) GetUsersByIDs(_ context.Context, ids []uuid.UUID) ([]sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.User
	for _, id := range ids {
		if u, ok := m.data.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *Memory) TouchUserLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[id]
	if !ok {
		return nil
	}
	u.LastLoginAt = sql.NullTime{Time: m.now(), Valid: true}
	m.data.users[id] = u
	m.touch("users")
	return nil
}

func (m *Memory) ListUsersWithArticleCount(_ context.Context) ([]sqlc.ListUsersWithArticleCountRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[uuid.UUID]int64{}
	for _, a := range m.data.articles {
		counts[a.AuthorID]++
	}
	out := make([]sqlc.ListUsersWithArticleCountRow, 0, len(m.data.users))
	for _, u := range m.data.users {
		out = append(out, sqlc.ListUsersWithArticleCountRow{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			Role:         u.Role,
			Status:       u.Status,
			AvatarUrl:    u.AvatarUrl,
			CreatedAt:    u.CreatedAt,
			LastLoginAt:  u.LastLoginAt,
			ArticleCount: counts[u.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateUserRole(_ context.Context, arg sqlc.UpdateUserRoleParams) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[arg.ID]
	if !ok {
		return sqlc.User{}, sql.ErrNoRows
	}
	u.Role = arg.Role
	m.data.users[arg.ID] = u
	m.now()
	m.touch("users")
	return u, nil
}

func (m *Memory) UpdateUserStatus(_ context.Context, arg sqlc.UpdateUserStatusParams) (sqlc.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[arg.ID]
	if !ok {
		return sqlc.User{}, sql.ErrNoRows
	}
	u.Status = arg.Status
	m.data.users[arg.ID] = u
	m.now()
	m.touch("users")
	return u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.users[id]; !ok {
		return 0, nil
	}
	delete(m.data.users, id)
	for aid, a := range m.data.articles {
		if a.AuthorID == id {
			m.deleteArticleLocked(aid)
		}
	}
	for cid, c := range m.data.comments {
		if c.AuthorID == id {
			m.deleteCommentThreadLocked(cid)
		}
	}
	for nid, n := range m.data.newsletters {
		if n.CreatedBy.Valid && n.CreatedBy.UUID == id {
			n.CreatedBy = uuid.NullUUID{}
			m.data.newsletters[nid] = n
		}
	}
	for i := range m.data.logs {
		if m.data.logs[i].AdminUserID.Valid && m.data.logs[i].AdminUserID.UUID == id {
			m.data.logs[i].AdminUserID = uuid.NullUUID{}
		}
	}
	m.now()
	m.touch("users")
	return 1, nil
}

// Articles

func (m *Memory) CreateArticle(_ context.Context, arg sqlc.CreateArticleParams) (sqlc.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.users[arg.AuthorID]; !ok {
		return sqlc.Article{}, &pgconn.PgError{Code: "23503", Message: "author does not exist", ConstraintName: "articles_author_id_fkey"}
	}
	for _, a := range m.data.articles {
		if a.Slug == arg.Slug {
			return sqlc.Article{}, uniqueViolation("articles_slug_key")
		}
	}
	now := m.now()
	a := sqlc.Article{
		ID:          arg.ID,
		AuthorID:    arg.AuthorID,
		Title:       arg.Title,
		Slug:        arg.Slug,
		Description: arg.Description,
		Content:     copyJSON(arg.Content),
		CoverImage:  arg.CoverImage,
		Status:      arg.Status,
		Category:    arg.Category,
		Tags:        copyTags(arg.Tags),
		WordCount:   arg.WordCount,
		PublishedAt: arg.PublishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.data.articles[a.ID] = a
	m.touch("articles")
	return copyArticle(a), nil
}

func (m *Memory) withAuthor(a sqlc.Article) sqlc.ArticleWithAuthorRow {
	u := m.data.users[a.AuthorID]
	return sqlc.ArticleWithAuthorRow{
		Article:         copyArticle(a),
		AuthorUsername:  u.Username,
		AuthorEmail:     u.Email,
		AuthorAvatarUrl: u.AvatarUrl,
	}
}

func (m *Memory) GetArticleByID(_ context.Context, id uuid.UUID) (sqlc.ArticleWithAuthorRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.data.articles[id]
	if !ok {
		return sqlc.ArticleWithAuthorRow{}, sql.ErrNoRows
	}
	return m.withAuthor(a), nil
}

func (m *Memory) GetArticlesByIDs(_ context.Context, ids []uuid.UUID) ([]sqlc.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.Article
	for _, id := range ids {
		if a, ok := m.data.articles[id]; ok {
			out = append(out, copyArticle(a))
		}
	}
	return out, nil
}

func (m *Memory) UpdateArticle(_ context.Context, arg sqlc.UpdateArticleParams) (sqlc.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.data.articles[arg.ID]
	if !ok {
		return sqlc.Article{}, sql.ErrNoRows
	}
	a.Title = arg.Title
	a.Description = arg.Description
	a.Content = copyJSON(arg.Content)
	a.CoverImage = arg.CoverImage
	a.Status = arg.Status
	a.Category = arg.Category
	a.Tags = copyTags(arg.Tags)
	a.WordCount = arg.WordCount
	a.PublishedAt = arg.PublishedAt
	a.UpdatedAt = m.now()
	m.data.articles[a.ID] = a
	m.touch("articles")
	return copyArticle(a), nil
}

func (m *Memory) UpdateArticleStatus(_ context.Context, arg sqlc.UpdateArticleStatusParams) (sqlc.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.data.articles[arg.ID]
	if !ok {
		return sqlc.Article{}, sql.ErrNoRows
	}
	now := m.now()
	a.Status = arg.Status
	if arg.Status == "published" && !a.PublishedAt.Valid {
		a.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}
	a.UpdatedAt = now
	m.data.articles[a.ID] = a
	m.touch("articles")
	return copyArticle(a), nil
}

func (m *Memory) UpdateArticleCategory(_ context.Context, arg sqlc.UpdateArticleCategoryParams) (sqlc.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.data.articles[arg.ID]
	if !ok {
		return sqlc.Article{}, sql.ErrNoRows
	}
	a.Category = arg.Category
	a.UpdatedAt = m.now()
	m.data.articles[a.ID] = a
	m.touch("articles")
	return copyArticle(a), nil
}

func (m *Memory) deleteArticleLocked(id uuid.UUID) bool {
	if _, ok := m.data.articles[id]; !ok {
		return false
	}
	delete(m.data.articles, id)
	for cid, c := range m.data.comments {
		if c.ArticleID == id {
			delete(m.data.comments, cid)
		}
	}
	m.touch("articles")
	return true
}

func (m *Memory) DeleteArticle(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now()
	if !m.deleteArticleLocked(id) {
		return 0, nil
	}
	return 1, nil
}

func (m *Memory) IncrementArticleViews(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.data.articles[id]
	if !ok || a.Status != "published" {
		return 0, sql.ErrNoRows
	}
	a.Views++
	m.data.articles[id] = a
	return a.Views, nil
}

func (m *Memory) IncrementArticleLikes(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.data.articles[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	a.Likes++
	m.data.articles[id] = a
	return a.Likes, nil
}

type articleFilter struct {
	ownDrafts bool
	viewerID  uuid.NullUUID
	status    string
	search    sql.NullString
	category  sql.NullString
	tags      []string
}

func (f articleFilter) match(a sqlc.Article) bool {
	if f.ownDrafts {
		own := a.Status == "draft" && f.viewerID.Valid && a.AuthorID == f.viewerID.UUID
		if a.Status != "published" && !own {
			return false
		}
	} else if a.Status != f.status {
		return false
	}
	if f.search.Valid && !matchesSearch(a, f.search.String) {
		return false
	}
	if f.category.Valid && a.Category != f.category.String {
		return false
	}
	if len(f.tags) > 0 && !overlaps(a.Tags, f.tags) {
		return false
	}
	return true
}

// matchesSearch approximates plainto_tsquery: every term must appear in the
// title or description.
func matchesSearch(a sqlc.Article, query string) bool {
	haystack := strings.ToLower(a.Title + " " + a.Description)
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return true
	}
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func (m *Memory) filterArticles(f articleFilter) []sqlc.Article {
	var out []sqlc.Article
	for _, a := range m.data.articles {
		if f.match(a) {
			out = append(out, a)
		}
	}
	return out
}

func sortArticles(items []sqlc.Article, key string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch key {
		case "oldest":
			return a.CreatedAt.Before(b.CreatedAt)
		case "popular":
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		case "trending":
			if a.Likes != b.Likes {
				return a.Likes > b.Likes
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (m *Memory) ListArticles(_ context.Context, arg sqlc.ListArticlesParams) ([]sqlc.ArticleWithAuthorRow, error) {
	// Postgres rejects these too.
	if arg.Off < 0 {
		return nil, errors.New("OFFSET must not be negative")
	}
	if arg.Lim < 0 {
		return nil, errors.New("LIMIT must not be negative")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.filterArticles(articleFilter{
		ownDrafts: arg.OwnDrafts,
		viewerID:  arg.ViewerID,
		status:    arg.Status,
		search:    arg.Search,
		category:  arg.Category,
		tags:      arg.Tags,
	})
	sortArticles(items, arg.SortKey)

	start := int(arg.Off)
	if start > len(items) {
		start = len(items)
	}
	end := start + int(arg.Lim)
	if end > len(items) {
		end = len(items)
	}
	out := make([]sqlc.ArticleWithAuthorRow, 0, end-start)
	for _, a := range items[start:end] {
		out = append(out, m.withAuthor(a))
	}
	return out, nil
}

func (m *Memory) CountArticles(_ context.Context, arg sqlc.CountArticlesParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filterArticles(articleFilter{
		ownDrafts: arg.OwnDrafts,
		viewerID:  arg.ViewerID,
		status:    arg.Status,
		search:    arg.Search,
		category:  arg.Category,
		tags:      arg.Tags,
	}))), nil
}

func (m *Memory) ListArticleCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, a := range m.data.articles {
		if a.Status != "published" || a.Category == "" {
			continue
		}
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		out = append(out, a.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) ListPopularTags(_ context.Context, limit int32) ([]sqlc.ListPopularTagsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, a := range m.data.articles {
		if a.Status != "published" {
			continue
		}
		for _, t := range a.Tags {
			counts[t]++
		}
	}
	out := make([]sqlc.ListPopularTagsRow, 0, len(counts))
	for tag, n := range counts {
		out = append(out, sqlc.ListPopularTagsRow{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if limit >= 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) AdminListArticles(_ context.Context) ([]sqlc.ArticleWithAuthorRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]sqlc.Article, 0, len(m.data.articles))
	for _, a := range m.data.articles {
		items = append(items, a)
	}
	sortArticles(items, "newest")
	out := make([]sqlc.ArticleWithAuthorRow, 0, len(items))
	for _, a := range items {
		out = append(out, m.withAuthor(a))
	}
	return out, nil
}

// Comments

func (m *Memory) CreateComment(_ context.Context, arg sqlc.CreateCommentParams) (sqlc.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.articles[arg.ArticleID]; !ok {
		return sqlc.Comment{}, &pgconn.PgError{Code: "23503", Message: "article does not exist", ConstraintName: "comments_article_id_fkey"}
	}
	c := sqlc.Comment{
		ID:        arg.ID,
		ArticleID: arg.ArticleID,
		AuthorID:  arg.AuthorID,
		ParentID:  arg.ParentID,
		Content:   arg.Content,
		CreatedAt: m.now(),
	}
	m.data.comments[c.ID] = c
	m.touch("comments")
	return c, nil
}

func (m *Memory) GetCommentByID(_ context.Context, id uuid.UUID) (sqlc.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data.comments[id]
	if !ok {
		return sqlc.Comment{}, sql.ErrNoRows
	}
	return c, nil
}

func (m *Memory) commentRows(match func(sqlc.Comment) bool, newestFirst bool) []sqlc.CommentWithAuthorRow {
	var out []sqlc.CommentWithAuthorRow
	for _, c := range m.data.comments {
		if !match(c) {
			continue
		}
		u := m.data.users[c.AuthorID]
		out = append(out, sqlc.CommentWithAuthorRow{
			ID:              c.ID,
			ArticleID:       c.ArticleID,
			AuthorID:        c.AuthorID,
			ParentID:        c.ParentID,
			Content:         c.Content,
			CreatedAt:       c.CreatedAt,
			AuthorUsername:  u.Username,
			AuthorAvatarUrl: u.AvatarUrl,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Memory) ListTopLevelComments(_ context.Context, articleID uuid.UUID) ([]sqlc.CommentWithAuthorRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commentRows(func(c sqlc.Comment) bool {
		return c.ArticleID == articleID && !c.ParentID.Valid
	}, true), nil
}

func (m *Memory) ListCommentReplies(_ context.Context, parentID uuid.NullUUID) ([]sqlc.CommentWithAuthorRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !parentID.Valid {
		return nil, nil
	}
	return m.commentRows(func(c sqlc.Comment) bool {
		return c.ParentID.Valid && c.ParentID.UUID == parentID.UUID
	}, false), nil
}

func (m *Memory) deleteCommentThreadLocked(id uuid.UUID) int64 {
	var n int64
	if _, ok := m.data.comments[id]; ok {
		delete(m.data.comments, id)
		n++
	}
	for cid, c := range m.data.comments {
		if c.ParentID.Valid && c.ParentID.UUID == id {
			n += m.deleteCommentThreadLocked(cid)
		}
	}
	return n
}

func (m *Memory) DeleteCommentThread(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now()
	n := m.deleteCommentThreadLocked(id)
	if n > 0 {
		m.touch("comments")
	}
	return n, nil
}

func (m *Memory) DeleteCommentsByArticle(_ context.Context, articleID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for cid, c := range m.data.comments {
		if c.ArticleID == articleID {
			delete(m.data.comments, cid)
			n++
		}
	}
	if n > 0 {
		m.now()
		m.touch("comments")
	}
	return n, nil
}

func (m *Memory) CountComments(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.data.comments)), nil
}

// Newsletters

func (m *Memory) CreateNewsletter(_ context.Context, arg sqlc.CreateNewsletterParams) (sqlc.Newsletter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := sqlc.Newsletter{
		ID:        arg.ID,
		Subject:   arg.Subject,
		Content:   arg.Content,
		Status:    "Draft",
		OpenRate:  "0%",
		ClickRate: "0%",
		CreatedBy: arg.CreatedBy,
		CreatedAt: m.now(),
	}
	m.data.newsletters[n.ID] = n
	m.touch("newsletters")
	return n, nil
}

func (m *Memory) GetNewsletterByID(_ context.Context, id uuid.UUID) (sqlc.Newsletter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.data.newsletters[id]
	if !ok {
		return sqlc.Newsletter{}, sql.ErrNoRows
	}
	return n, nil
}

func (m *Memory) ListNewsletters(_ context.Context) ([]sqlc.Newsletter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sqlc.Newsletter, 0, len(m.data.newsletters))
	for _, n := range m.data.newsletters {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkNewsletterSent(_ context.Context, arg sqlc.MarkNewsletterSentParams) (sqlc.Newsletter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.data.newsletters[arg.ID]
	if !ok || n.Status != "Draft" {
		return sqlc.Newsletter{}, sql.ErrNoRows
	}
	n.Status = "Sent"
	n.SentAt = sql.NullTime{Time: m.now(), Valid: true}
	n.Recipients = arg.Recipients
	n.OpenRate = arg.OpenRate
	n.ClickRate = arg.ClickRate
	m.data.newsletters[n.ID] = n
	m.touch("newsletters")
	return n, nil
}

// Admin

func (m *Memory) GetDashboardStats(_ context.Context) (sqlc.GetDashboardStatsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s sqlc.GetDashboardStatsRow
	s.TotalUsers = int64(len(m.data.users))
	for _, u := range m.data.users {
		if u.Role != "user" {
			s.TotalWriters++
		}
	}
	s.TotalArticles = int64(len(m.data.articles))
	for _, a := range m.data.articles {
		switch a.Status {
		case "published":
			s.PublishedArticles++
		case "pending", "under_review":
			s.PendingArticles++
		case "draft":
			s.DraftArticles++
		}
		s.TotalViews += a.Views
	}
	s.TotalComments = int64(len(m.data.comments))
	s.TotalNewsletters = int64(len(m.data.newsletters))
	for _, n := range m.data.newsletters {
		if n.Status == "Sent" {
			s.SentNewsletters++
		}
	}
	return s, nil
}

func (m *Memory) ListTableStats(_ context.Context) ([]sqlc.ListTableStatsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{
		"articles":        len(m.data.articles),
		"comments":        len(m.data.comments),
		"moderation_logs": len(m.data.logs),
		"newsletters":     len(m.data.newsletters),
		"users":           len(m.data.users),
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]sqlc.ListTableStatsRow, 0, len(names))
	for _, name := range names {
		row := sqlc.ListTableStatsRow{
			Name:      name,
			RowCount:  int64(counts[name]),
			TotalSize: "in memory",
		}
		if t, ok := m.data.touched[name]; ok {
			row.LastModified = sql.NullTime{Time: t, Valid: true}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *Memory) CreateModerationLog(_ context.Context, arg sqlc.CreateModerationLogParams) (sqlc.ModerationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	details := copyJSON(arg.Details)
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	l := sqlc.ModerationLog{
		ID:          arg.ID,
		AdminUserID: arg.AdminUserID,
		Action:      arg.Action,
		TargetType:  arg.TargetType,
		TargetID:    arg.TargetID,
		Details:     details,
		CreatedAt:   m.now(),
	}
	m.data.logs = append(m.data.logs, l)
	m.touch("moderation_logs")
	return l, nil
}

func matchLog(l sqlc.ModerationLog, action, targetType, targetID sql.NullString) bool {
	if action.Valid && l.Action != action.String {
		return false
	}
	if targetType.Valid && l.TargetType != targetType.String {
		return false
	}
	if targetID.Valid && l.TargetID != targetID.String {
		return false
	}
	return true
}

func (m *Memory) ListModerationLogs(_ context.Context, arg sqlc.ListModerationLogsParams) ([]sqlc.ListModerationLogsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sqlc.ListModerationLogsRow
	for i := len(m.data.logs) - 1; i >= 0; i-- {
		l := m.data.logs[i]
		if !matchLog(l, arg.Action, arg.TargetType, arg.TargetID) {
			continue
		}
		row := sqlc.ListModerationLogsRow{
			ID:          l.ID,
			AdminUserID: l.AdminUserID,
			Action:      l.Action,
			TargetType:  l.TargetType,
			TargetID:    l.TargetID,
			Details:     copyJSON(l.Details),
			CreatedAt:   l.CreatedAt,
		}
		if l.AdminUserID.Valid {
			if u, ok := m.data.users[l.AdminUserID.UUID]; ok {
				row.AdminUsername = sql.NullString{String: u.Username, Valid: true}
			}
		}
		out = append(out, row)
	}
	start := int(arg.Off)
	if start > len(out) {
		start = len(out)
	}
	end := start + int(arg.Lim)
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (m *Memory) CountModerationLogs(_ context.Context, arg sqlc.CountModerationLogsParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, l := range m.data.logs {
		if matchLog(l, arg.Action, arg.TargetType, arg.TargetID) {
			n++
		}
	}
	return n, nil
}
