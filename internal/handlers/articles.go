package handlers

import (
	"context"
	"net/http"
	"strconv"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/service"

	"github.com/google/uuid"
)

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func (h API) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Articles.List(r.Context(), viewer(r), service.ArticleQuery{
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
		Status:   q.Get("status"),
		Sort:     q.Get("sort"),
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Tags:     service.ParseTags(q.Get("tags")),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h API) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.Articles.Get(r.Context(), viewer(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h API) CreateArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var p articlePayload
	if !bind(w, r, &p) {
		return
	}
	article, err := h.Articles.Create(r.Context(), user, p.ArticleInput)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

func (h API) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var p articlePayload
	if !bind(w, r, &p) {
		return
	}
	article, err := h.Articles.Update(r.Context(), user, id, p.ArticleInput)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (h API) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Articles.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Article deleted successfully")
}

func (h API) LikeArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Articles.Like(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h API) ApproveArticle(w http.ResponseWriter, r *http.Request) {
	h.moderateArticle(w, r, h.Articles.Approve)
}

func (h API) RejectArticle(w http.ResponseWriter, r *http.Request) {
	h.moderateArticle(w, r, h.Articles.Reject)
}

func (h API) moderateArticle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, user auth.User, id uuid.UUID) (api.Article, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	article, err := fn(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (h API) BulkUpdateArticles(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var p bulkArticlesPayload
	if !bind(w, r, &p) {
		return
	}
	res, err := h.Articles.BulkUpdate(r.Context(), user, p.BulkArticleRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
