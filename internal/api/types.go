// Package api defines the JSON shapes exchanged over the HTTP API.
package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Message struct {
	Message string `json:"message"`
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	AvatarURL    string     `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	ArticleCount *int64     `json:"articleCount,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type AuthResponse struct {
	User       User      `json:"user"`
	Token      string    `json:"token"`
	RememberMe *bool     `json:"rememberMe,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type MeResponse struct {
	User User `json:"user"`
}

type RefreshResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Author struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

type Article struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Content     json.RawMessage `json:"content"`
	CoverImage  string          `json:"coverImage,omitempty"`
	Status      string          `json:"status"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Views       int64           `json:"views"`
	Likes       int64           `json:"likes"`
	WordCount   int32           `json:"wordCount"`
	Author      Author          `json:"author"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ArticleInput is the create/update payload. Content must be a JSON object.
// On update a nil Description or Category keeps the stored value and an
// empty string clears it.
type ArticleInput struct {
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Content     json.RawMessage `json:"content"`
	Status      string          `json:"status"`
	Category    *string         `json:"category,omitempty"`
	Tags        []string        `json:"tags"`
	CoverImage  string          `json:"coverImage"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type ArticleList struct {
	Articles      []Article  `json:"articles"`
	TotalArticles int64      `json:"totalArticles"`
	TotalPages    int        `json:"totalPages"`
	CurrentPage   int        `json:"currentPage"`
	Categories    []string   `json:"categories"`
	PopularTags   []TagCount `json:"popularTags"`
}

type ArticleDetail struct {
	Article  Article   `json:"article"`
	Comments []Comment `json:"comments"`
}

type LikeResponse struct {
	Likes int64 `json:"likes"`
}

type ArticleUpdates struct {
	Status   *string `json:"status,omitempty"`
	Category *string `json:"category,omitempty"`
}

type BulkArticleRequest struct {
	IDs     []uuid.UUID    `json:"ids"`
	Updates ArticleUpdates `json:"updates"`
}

type UserUpdates struct {
	Role   *string `json:"role,omitempty"`
	Status *string `json:"status,omitempty"`
}

type BulkUserRequest struct {
	IDs     []uuid.UUID `json:"ids"`
	Updates UserUpdates `json:"updates"`
}

type BulkResponse struct {
	Updated int `json:"updated"`
}

type Comment struct {
	ID        uuid.UUID  `json:"id"`
	ArticleID uuid.UUID  `json:"articleId"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	Content   string     `json:"content"`
	Author    Author     `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
}

type CommentInput struct {
	ArticleID uuid.UUID  `json:"articleId"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	Content   string     `json:"content"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type Base64UploadRequest struct {
	Image string `json:"image"`
	// Kind is "cover" to downscale to the cover box.
	Kind string `json:"kind,omitempty"`
}

type Newsletter struct {
	ID          uuid.UUID `json:"id"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	Status      string    `json:"status"`
	SentDate    string    `json:"sentDate"`
	Recipients  int32     `json:"recipients"`
	OpenRate    string    `json:"openRate"`
	ClickRate   string    `json:"clickRate"`
	CreatedAt   time.Time `json:"createdAt"`
}

type NewsletterInput struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type DatabaseTable struct {
	Name         string     `json:"name"`
	Rows         int64      `json:"rows"`
	Size         string     `json:"size"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

type Stats struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalWriters      int64 `json:"totalWriters"`
	TotalArticles     int64 `json:"totalArticles"`
	PublishedArticles int64 `json:"publishedArticles"`
	PendingArticles   int64 `json:"pendingArticles"`
	DraftArticles     int64 `json:"draftArticles"`
	TotalViews        int64 `json:"totalViews"`
	TotalComments     int64 `json:"totalComments"`
	TotalNewsletters  int64 `json:"totalNewsletters"`
	SentNewsletters   int64 `json:"sentNewsletters"`
}

type VerifyAdminResponse struct {
	IsAdmin bool   `json:"isAdmin"`
	Role    string `json:"role"`
}

type RoleResponse struct {
	User User `json:"user"`
}

type ModerationLog struct {
	ID            uuid.UUID       `json:"id"`
	AdminUserID   *uuid.UUID      `json:"adminUserId,omitempty"`
	AdminUsername string          `json:"adminUsername,omitempty"`
	Action        string          `json:"action"`
	TargetType    string          `json:"targetType"`
	TargetID      string          `json:"targetId"`
	Details       json.RawMessage `json:"details,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type ModerationLogList struct {
	Logs  []ModerationLog `json:"logs"`
	Total int64           `json:"total"`
}
