package handlers

import (
	"net/http"
)

func (h API) ListArticleComments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "articleId")
	if !ok {
		return
	}
	comments, err := h.Comments.ListByArticle(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h API) ListCommentReplies(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	replies, err := h.Comments.ListReplies(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

func (h API) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var p commentPayload
	if !bind(w, r, &p) {
		return
	}
	c, err := h.Comments.Create(r.Context(), user, p.CommentInput)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h API) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Comments.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Comment deleted successfully")
}
