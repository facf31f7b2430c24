package adminstore

import (
	"context"
	"fmt"

	"inquill/internal/api"
	"inquill/internal/client"

	"github.com/google/uuid"
)

// Backend is the subset of the HTTP API the admin console calls.
type Backend interface {
	Users(ctx context.Context) ([]client.User, error)
	Articles(ctx context.Context) ([]client.Article, error)
	Newsletters(ctx context.Context) ([]client.Newsletter, error)
	DatabaseTables(ctx context.Context, refresh bool) ([]client.DatabaseTable, error)
	Promote(ctx context.Context, id string) (client.User, error)
	Demote(ctx context.Context, id string) (client.User, error)
	DeleteUser(ctx context.Context, id string) error
	DeleteArticle(ctx context.Context, id string) error
	BulkUpdateUsers(ctx context.Context, ids []string, updates api.UserUpdates) error
	BulkUpdateArticles(ctx context.Context, ids []string, updates api.ArticleUpdates) error
	ApproveArticle(ctx context.Context, id string) (client.Article, error)
	RejectArticle(ctx context.Context, id string) (client.Article, error)
	SendNewsletter(ctx context.Context, id string) (client.Newsletter, error)
	CreateNewsletter(ctx context.Context, subject, content string) (client.Newsletter, error)
	VerifyAdmin(ctx context.Context) (api.VerifyAdminResponse, error)
}

// NewClientBackend adapts the API gateway to Backend.
func NewClientBackend(c *client.Client) Backend {
	return clientBackend{c: c}
}

type clientBackend struct{ c *client.Client }

func (b clientBackend) Users(ctx context.Context) ([]client.User, error) {
	return b.c.Admin().Users(ctx)
}

func (b clientBackend) Articles(ctx context.Context) ([]client.Article, error) {
	return b.c.Admin().Articles(ctx)
}

func (b clientBackend) Newsletters(ctx context.Context) ([]client.Newsletter, error) {
	return b.c.Newsletters().List(ctx)
}

func (b clientBackend) DatabaseTables(ctx context.Context, refresh bool) ([]client.DatabaseTable, error) {
	return b.c.Admin().DatabaseTables(ctx, refresh)
}

func (b clientBackend) Promote(ctx context.Context, id string) (client.User, error) {
	return b.c.Admin().Promote(ctx, id)
}

func (b clientBackend) Demote(ctx context.Context, id string) (client.User, error) {
	return b.c.Admin().Demote(ctx, id)
}

func (b clientBackend) DeleteUser(ctx context.Context, id string) error {
	return b.c.Admin().DeleteUser(ctx, id)
}

func (b clientBackend) DeleteArticle(ctx context.Context, id string) error {
	return b.c.Articles().Delete(ctx, id)
}

func (b clientBackend) BulkUpdateUsers(ctx context.Context, ids []string, updates api.UserUpdates) error {
	parsed, err := parseIDs(ids)
	if err != nil {
		return err
	}
	_, err = b.c.Admin().BulkUpdateUsers(ctx, api.BulkUserRequest{IDs: parsed, Updates: updates})
	return err
}

func (b clientBackend) BulkUpdateArticles(ctx context.Context, ids []string, updates api.ArticleUpdates) error {
	parsed, err := parseIDs(ids)
	if err != nil {
		return err
	}
	_, err = b.c.Articles().BulkUpdate(ctx, api.BulkArticleRequest{IDs: parsed, Updates: updates})
	return err
}

func (b clientBackend) ApproveArticle(ctx context.Context, id string) (client.Article, error) {
	return b.c.Articles().Approve(ctx, id)
}

func (b clientBackend) RejectArticle(ctx context.Context, id string) (client.Article, error) {
	return b.c.Articles().Reject(ctx, id)
}

func (b clientBackend) SendNewsletter(ctx context.Context, id string) (client.Newsletter, error) {
	return b.c.Newsletters().Send(ctx, id)
}

func (b clientBackend) CreateNewsletter(ctx context.Context, subject, content string) (client.Newsletter, error) {
	return b.c.Newsletters().Create(ctx, subject, content)
}

func (b clientBackend) VerifyAdmin(ctx context.Context) (api.VerifyAdminResponse, error) {
	return b.c.Admin().VerifyAdmin(ctx)
}

func parseIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", raw, err)
		}
		out = append(out, id)
	}
	return out, nil
}
