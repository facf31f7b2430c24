package service

import (
	"database/sql"
	"encoding/json"
	"time"

	"inquill/internal/api"
	"inquill/internal/db/sqlc"
)

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func mapUser(u sqlc.User) api.User {
	return api.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		AvatarURL: u.AvatarUrl.String,
		CreatedAt: u.CreatedAt,
		LastLogin: nullTimePtr(u.LastLoginAt),
	}
}

func mapUserWithCount(row sqlc.ListUsersWithArticleCountRow) api.User {
	count := row.ArticleCount
	return api.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		Role:         row.Role,
		Status:       row.Status,
		AvatarURL:    row.AvatarUrl.String,
		CreatedAt:    row.CreatedAt,
		LastLogin:    nullTimePtr(row.LastLoginAt),
		ArticleCount: &count,
	}
}

func mapArticle(a sqlc.Article, author api.Author) api.Article {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	content := a.Content
	if len(content) == 0 {
		content = json.RawMessage("{}")
	}
	return api.Article{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Description: a.Description,
		Content:     content,
		CoverImage:  a.CoverImage.String,
		Status:      a.Status,
		Category:    a.Category,
		Tags:        tags,
		Views:       a.Views,
		Likes:       a.Likes,
		WordCount:   a.WordCount,
		Author:      author,
		PublishedAt: nullTimePtr(a.PublishedAt),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func mapArticleRow(row sqlc.ArticleWithAuthorRow) api.Article {
	return mapArticle(row.Article, api.Author{
		ID:        row.AuthorID,
		Username:  row.AuthorUsername,
		AvatarURL: row.AuthorAvatarUrl.String,
	})
}

func mapArticleRows(rows []sqlc.ArticleWithAuthorRow) []api.Article {
	out := make([]api.Article, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapArticleRow(row))
	}
	return out
}

func mapComment(row sqlc.CommentWithAuthorRow) api.Comment {
	c := api.Comment{
		ID:        row.ID,
		ArticleID: row.ArticleID,
		Content:   row.Content,
		Author: api.Author{
			ID:        row.AuthorID,
			Username:  row.AuthorUsername,
			AvatarURL: row.AuthorAvatarUrl.String,
		},
		CreatedAt: row.CreatedAt,
	}
	if row.ParentID.Valid {
		id := row.ParentID.UUID
		c.ParentID = &id
	}
	return c
}

func mapComments(rows []sqlc.CommentWithAuthorRow) []api.Comment {
	out := make([]api.Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapComment(row))
	}
	return out
}

func mapTableStats(rows []sqlc.ListTableStatsRow) []api.DatabaseTable {
	out := make([]api.DatabaseTable, 0, len(rows))
	for _, row := range rows {
		out = append(out, api.DatabaseTable{
			Name:         row.Name,
			Rows:         row.RowCount,
			Size:         row.TotalSize,
			LastModified: nullTimePtr(row.LastModified),
		})
	}
	return out
}

func mapStats(row sqlc.GetDashboardStatsRow) api.Stats {
	return api.Stats{
		TotalUsers:        row.TotalUsers,
		TotalWriters:      row.TotalWriters,
		TotalArticles:     row.TotalArticles,
		PublishedArticles: row.PublishedArticles,
		PendingArticles:   row.PendingArticles,
		DraftArticles:     row.DraftArticles,
		TotalViews:        row.TotalViews,
		TotalComments:     row.TotalComments,
		TotalNewsletters:  row.TotalNewsletters,
		SentNewsletters:   row.SentNewsletters,
	}
}
