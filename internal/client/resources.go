package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"inquill/internal/api"
)

type AuthAPI struct{ c *Client }

func (a *AuthAPI) Register(ctx context.Context, in api.RegisterRequest) (Session, error) {
	var w wireAuth
	if err := a.c.Post(ctx, "/auth/register", in, &w); err != nil {
		return Session{}, err
	}
	return a.store(normalizeSession(w, true)), nil
}

func (a *AuthAPI) Login(ctx context.Context, in api.LoginRequest) (Session, error) {
	var w wireAuth
	if err := a.c.Post(ctx, "/auth/login", in, &w); err != nil {
		return Session{}, err
	}
	return a.store(normalizeSession(w, in.RememberMe)), nil
}

func (a *AuthAPI) store(s Session) Session {
	if s.Token != "" {
		a.c.tokens.SetToken(s.Token, s.ExpiresAt)
	}
	return s
}

// Logout clears the local token even when the server call fails.
func (a *AuthAPI) Logout(ctx context.Context) error {
	defer a.c.tokens.Clear()
	return a.c.Post(ctx, "/auth/logout", nil, nil)
}

func (a *AuthAPI) Me(ctx context.Context) (User, error) {
	var w struct {
		User wireUser `json:"user"`
	}
	if err := a.c.Get(ctx, "/auth/me", nil, &w); err != nil {
		return User{}, err
	}
	return normalizeUser(w.User), nil
}

// Refresh re-issues the session token synchronously.
func (a *AuthAPI) Refresh(ctx context.Context) error {
	var w wireAuth
	if err := a.c.send(ctx, http.MethodPost, "/auth/refresh", nil, "", nil, &w); err != nil {
		return err
	}
	a.c.tokens.SetToken(w.Token, w.ExpiresAt)
	return nil
}

type ArticlesAPI struct{ c *Client }

type ArticleQuery struct {
	Page     int
	Limit    int
	Status   string
	Sort     string
	Search   string
	Category string
	Tags     []string
}

func (q ArticleQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("status", q.Status)
	set("sort", q.Sort)
	set("search", q.Search)
	set("category", q.Category)
	set("tags", strings.Join(q.Tags, ","))
	return v
}

func (a *ArticlesAPI) GetAll(ctx context.Context, q ArticleQuery) (ArticleList, error) {
	var w wireArticleList
	if err := a.c.Get(ctx, "/articles", q.values(), &w); err != nil {
		return ArticleList{}, err
	}
	return ArticleList{
		Articles:      normalizeArticles(w.Articles),
		TotalArticles: w.TotalArticles,
		TotalPages:    w.TotalPages,
		CurrentPage:   w.CurrentPage,
		Categories:    w.Categories,
		PopularTags:   w.PopularTags,
	}, nil
}

func (a *ArticlesAPI) GetByID(ctx context.Context, id string) (ArticleDetail, error) {
	var w struct {
		Article  wireArticle   `json:"article"`
		Comments []wireComment `json:"comments"`
	}
	if err := a.c.Get(ctx, "/articles/"+url.PathEscape(id), nil, &w); err != nil {
		return ArticleDetail{}, err
	}
	return ArticleDetail{Article: normalizeArticle(w.Article), Comments: normalizeComments(w.Comments)}, nil
}

func (a *ArticlesAPI) Create(ctx context.Context, in api.ArticleInput) (Article, error) {
	var w wireArticle
	if err := a.c.Post(ctx, "/articles", in, &w); err != nil {
		return Article{}, err
	}
	return normalizeArticle(w), nil
}

func (a *ArticlesAPI) Update(ctx context.Context, id string, in api.ArticleInput) (Article, error) {
	var w wireArticle
	if err := a.c.Put(ctx, "/articles/"+url.PathEscape(id), in, &w); err != nil {
		return Article{}, err
	}
	return normalizeArticle(w), nil
}

func (a *ArticlesAPI) Delete(ctx context.Context, id string) error {
	return a.c.Delete(ctx, "/articles/"+url.PathEscape(id), nil)
}

func (a *ArticlesAPI) Like(ctx context.Context, id string) (int64, error) {
	var res api.LikeResponse
	if err := a.c.Post(ctx, "/articles/"+url.PathEscape(id)+"/like", nil, &res); err != nil {
		return 0, err
	}
	return res.Likes, nil
}

func (a *ArticlesAPI) Approve(ctx context.Context, id string) (Article, error) {
	return a.moderate(ctx, id, "approve")
}

func (a *ArticlesAPI) Reject(ctx context.Context, id string) (Article, error) {
	return a.moderate(ctx, id, "reject")
}

func (a *ArticlesAPI) moderate(ctx context.Context, id, verb string) (Article, error) {
	var w wireArticle
	if err := a.c.Post(ctx, "/articles/"+url.PathEscape(id)+"/"+verb, nil, &w); err != nil {
		return Article{}, err
	}
	return normalizeArticle(w), nil
}

func (a *ArticlesAPI) BulkUpdate(ctx context.Context, req api.BulkArticleRequest) (int, error) {
	var res api.BulkResponse
	if err := a.c.Put(ctx, "/articles/bulk-update", req, &res); err != nil {
		return 0, err
	}
	return res.Updated, nil
}

type CommentsAPI struct{ c *Client }

func (a *CommentsAPI) ListByArticle(ctx context.Context, articleID string) ([]Comment, error) {
	var ws []wireComment
	if err := a.c.Get(ctx, "/comments/article/"+url.PathEscape(articleID), nil, &ws); err != nil {
		return nil, err
	}
	return normalizeComments(ws), nil
}

func (a *CommentsAPI) Replies(ctx context.Context, commentID string) ([]Comment, error) {
	var ws []wireComment
	if err := a.c.Get(ctx, "/comments/"+url.PathEscape(commentID)+"/replies", nil, &ws); err != nil {
		return nil, err
	}
	return normalizeComments(ws), nil
}

func (a *CommentsAPI) Create(ctx context.Context, in api.CommentInput) (Comment, error) {
	var w wireComment
	if err := a.c.Post(ctx, "/comments", in, &w); err != nil {
		return Comment{}, err
	}
	return normalizeComment(w), nil
}

func (a *CommentsAPI) Delete(ctx context.Context, id string) error {
	return a.c.Delete(ctx, "/comments/"+url.PathEscape(id), nil)
}

type UploadsAPI struct{ c *Client }

// Image uploads raw image bytes as a multipart form. kind is "cover" or
// empty for inline content images.
func (a *UploadsAPI) Image(ctx context.Context, filename string, r io.Reader, kind string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("multipart: %w", err)
	}
	if kind != "" {
		if err := mw.WriteField("kind", kind); err != nil {
			return "", fmt.Errorf("multipart: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("multipart: %w", err)
	}
	var res api.UploadResponse
	if err := a.c.do(ctx, http.MethodPost, "/uploads/image", nil, mw.FormDataContentType(), &buf, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}

func (a *UploadsAPI) Base64(ctx context.Context, dataURI, kind string) (string, error) {
	var res api.UploadResponse
	if err := a.c.Post(ctx, "/uploads/base64", api.Base64UploadRequest{Image: dataURI, Kind: kind}, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}

type NewslettersAPI struct{ c *Client }

func (a *NewslettersAPI) List(ctx context.Context) ([]Newsletter, error) {
	var ws []wireNewsletter
	if err := a.c.Get(ctx, "/newsletters", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]Newsletter, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeNewsletter(w))
	}
	return out, nil
}

func (a *NewslettersAPI) Create(ctx context.Context, subject, content string) (Newsletter, error) {
	var w wireNewsletter
	if err := a.c.Post(ctx, "/newsletters", api.NewsletterInput{Subject: subject, Content: content}, &w); err != nil {
		return Newsletter{}, err
	}
	return normalizeNewsletter(w), nil
}

func (a *NewslettersAPI) Send(ctx context.Context, id string) (Newsletter, error) {
	var w wireNewsletter
	if err := a.c.Post(ctx, "/newsletters/"+url.PathEscape(id)+"/send", nil, &w); err != nil {
		return Newsletter{}, err
	}
	return normalizeNewsletter(w), nil
}

type AdminAPI struct{ c *Client }

func (a *AdminAPI) Users(ctx context.Context) ([]User, error) {
	var ws []wireUser
	if err := a.c.Get(ctx, "/admin/users", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]User, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeUser(w))
	}
	return out, nil
}

func (a *AdminAPI) Articles(ctx context.Context) ([]Article, error) {
	var ws []wireArticle
	if err := a.c.Get(ctx, "/admin/articles", nil, &ws); err != nil {
		return nil, err
	}
	return normalizeArticles(ws), nil
}

func (a *AdminAPI) Stats(ctx context.Context) (api.Stats, error) {
	var s api.Stats
	err := a.c.Get(ctx, "/admin/stats", nil, &s)
	return s, err
}

func (a *AdminAPI) DatabaseTables(ctx context.Context, refresh bool) ([]DatabaseTable, error) {
	var q url.Values
	if refresh {
		q = url.Values{"refresh": {"true"}}
	}
	var ws []wireTable
	if err := a.c.Get(ctx, "/admin/database", q, &ws); err != nil {
		return nil, err
	}
	out := make([]DatabaseTable, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeTable(w))
	}
	return out, nil
}

func (a *AdminAPI) Logs(ctx context.Context, action string, limit, offset int) (api.ModerationLogList, error) {
	q := url.Values{}
	if action != "" {
		q.Set("action", action)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var res api.ModerationLogList
	err := a.c.Get(ctx, "/admin/logs", q, &res)
	return res, err
}

func (a *AdminAPI) VerifyAdmin(ctx context.Context) (api.VerifyAdminResponse, error) {
	var res api.VerifyAdminResponse
	err := a.c.Get(ctx, "/admin/verify-admin", nil, &res)
	return res, err
}

func (a *AdminAPI) Promote(ctx context.Context, id string) (User, error) {
	return a.changeRole(ctx, id, "promote")
}

func (a *AdminAPI) Demote(ctx context.Context, id string) (User, error) {
	return a.changeRole(ctx, id, "demote")
}

func (a *AdminAPI) changeRole(ctx context.Context, id, verb string) (User, error) {
	var w struct {
		User wireUser `json:"user"`
	}
	if err := a.c.Put(ctx, "/admin/users/"+url.PathEscape(id)+"/"+verb, nil, &w); err != nil {
		return User{}, err
	}
	return normalizeUser(w.User), nil
}

func (a *AdminAPI) DeleteUser(ctx context.Context, id string) error {
	return a.c.Delete(ctx, "/admin/users/"+url.PathEscape(id), nil)
}

func (a *AdminAPI) BulkUpdateUsers(ctx context.Context, req api.BulkUserRequest) (int, error) {
	var res api.BulkResponse
	if err := a.c.Put(ctx, "/users/bulk-update", req, &res); err != nil {
		return 0, err
	}
	return res.Updated, nil
}
