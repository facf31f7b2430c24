package sqlc

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	AdminListArticles(ctx context.Context) ([]ArticleWithAuthorRow, error)
	CountArticles(ctx context.Context, arg CountArticlesParams) (int64, error)
	CountComments(ctx context.Context) (int64, error)
	CountModerationLogs(ctx context.Context, arg CountModerationLogsParams) (int64, error)
	CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error)
	CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error)
	CreateModerationLog(ctx context.Context, arg CreateModerationLogParams) (ModerationLog, error)
	CreateNewsletter(ctx context.Context, arg CreateNewsletterParams) (Newsletter, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteCommentThread(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteCommentsByArticle(ctx context.Context, articleID uuid.UUID) (int64, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)
	GetArticleByID(ctx context.Context, id uuid.UUID) (ArticleWithAuthorRow, error)
	GetArticlesByIDs(ctx context.Context, ids []uuid.UUID) ([]Article, error)
	GetCommentByID(ctx context.Context, id uuid.UUID) (Comment, error)
	GetDashboardStats(ctx context.Context) (GetDashboardStatsRow, error)
	GetNewsletterByID(ctx context.Context, id uuid.UUID) (Newsletter, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	IncrementArticleLikes(ctx context.Context, id uuid.UUID) (int64, error)
	IncrementArticleViews(ctx context.Context, id uuid.UUID) (int64, error)
	ListArticleCategories(ctx context.Context) ([]string, error)
	ListArticles(ctx context.Context, arg ListArticlesParams) ([]ArticleWithAuthorRow, error)
	ListCommentReplies(ctx context.Context, parentID uuid.NullUUID) ([]CommentWithAuthorRow, error)
	ListModerationLogs(ctx context.Context, arg ListModerationLogsParams) ([]ListModerationLogsRow, error)
	ListNewsletters(ctx context.Context) ([]Newsletter, error)
	ListPopularTags(ctx context.Context, limit int32) ([]ListPopularTagsRow, error)
	ListTableStats(ctx context.Context) ([]ListTableStatsRow, error)
	ListTopLevelComments(ctx context.Context, articleID uuid.UUID) ([]CommentWithAuthorRow, error)
	ListUsersWithArticleCount(ctx context.Context) ([]ListUsersWithArticleCountRow, error)
	MarkNewsletterSent(ctx context.Context, arg MarkNewsletterSentParams) (Newsletter, error)
	TouchUserLastLogin(ctx context.Context, id uuid.UUID) error
	UpdateArticle(ctx context.Context, arg UpdateArticleParams) (Article, error)
	UpdateArticleCategory(ctx context.Context, arg UpdateArticleCategoryParams) (Article, error)
	UpdateArticleStatus(ctx context.Context, arg UpdateArticleStatusParams) (Article, error)
	UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error)
	UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) (User, error)
}

var _ Querier = (*Queries)(nil)
