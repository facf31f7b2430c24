package client

import (
	"encoding/json"
	"strings"
	"time"

	"inquill/internal/policy"
)

// Canonical shapes used by callers of this package. Server payloads are
// decoded into the loose wire types below and converted exactly once, in
// the normalize functions, so no other code needs field fallbacks.

type User struct {
	ID           string
	Username     string
	Email        string
	Role         string // display form, e.g. "Admin"
	Status       string // display form, e.g. "Active"
	AvatarURL    string
	CreatedAt    time.Time
	LastLogin    *time.Time
	ArticleCount int64
}

// RoleValue parses the display role back into a policy role.
func (u User) RoleValue() policy.Role {
	r, _ := policy.ParseRole(u.Role)
	return r
}

type Author struct {
	ID       string
	Username string
}

type Article struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Content     json.RawMessage
	CoverImage  string
	Status      string // display form, e.g. "Under Review"
	Category    string
	Tags        []string
	Views       int64
	Likes       int64
	WordCount   int64
	Author      Author
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StatusValue parses the display status back into the workflow enum.
func (a Article) StatusValue() policy.ArticleStatus {
	s, _ := policy.ParseArticleStatus(a.Status)
	return s
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type ArticleList struct {
	Articles      []Article
	TotalArticles int64
	TotalPages    int
	CurrentPage   int
	Categories    []string
	PopularTags   []TagCount
}

type ArticleDetail struct {
	Article  Article
	Comments []Comment
}

type Comment struct {
	ID        string
	ArticleID string
	ParentID  string
	Content   string
	Author    Author
	CreatedAt time.Time
}

type Newsletter struct {
	ID          string
	Subject     string
	Content     string
	ContentHTML string
	Status      string
	SentDate    string
	Recipients  int64
	OpenRate    string
	ClickRate   string
	CreatedAt   time.Time
}

type DatabaseTable struct {
	Name         string
	Rows         int64
	Size         string
	LastModified *time.Time
}

type Session struct {
	User       User
	Token      string
	ExpiresAt  time.Time
	RememberMe bool
}

// Wire forms. Older servers send Mongo style "_id" keys and may populate
// the author either as an object or as a bare id.

type wireUser struct {
	ID           string     `json:"id"`
	LegacyID     string     `json:"_id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	AvatarURL    string     `json:"avatarUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
	ArticleCount int64      `json:"articleCount"`
}

type wireArticle struct {
	ID          string          `json:"id"`
	LegacyID    string          `json:"_id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Content     json.RawMessage `json:"content"`
	CoverImage  string          `json:"coverImage"`
	Status      string          `json:"status"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Views       int64           `json:"views"`
	Likes       int64           `json:"likes"`
	WordCount   int64           `json:"wordCount"`
	Author      json.RawMessage `json:"author"`
	PublishedAt *time.Time      `json:"publishedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type wireArticleList struct {
	Articles      []wireArticle `json:"articles"`
	TotalArticles int64         `json:"totalArticles"`
	TotalPages    int           `json:"totalPages"`
	CurrentPage   int           `json:"currentPage"`
	Categories    []string      `json:"categories"`
	PopularTags   []TagCount    `json:"popularTags"`
}

type wireComment struct {
	ID        string          `json:"id"`
	LegacyID  string          `json:"_id"`
	ArticleID string          `json:"articleId"`
	Article   string          `json:"article"`
	ParentID  string          `json:"parentId"`
	Content   string          `json:"content"`
	Author    json.RawMessage `json:"author"`
	CreatedAt time.Time       `json:"createdAt"`
}

type wireNewsletter struct {
	ID          string    `json:"id"`
	LegacyID    string    `json:"_id"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	Status      string    `json:"status"`
	SentDate    string    `json:"sentDate"`
	Recipients  int64     `json:"recipients"`
	OpenRate    string    `json:"openRate"`
	ClickRate   string    `json:"clickRate"`
	CreatedAt   time.Time `json:"createdAt"`
}

type wireTable struct {
	Name         string     `json:"name"`
	Table        string     `json:"table"`
	Rows         int64      `json:"rows"`
	Size         string     `json:"size"`
	LastModified *time.Time `json:"lastModified"`
}

type wireAuth struct {
	User       wireUser  `json:"user"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	RememberMe *bool     `json:"rememberMe"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func displayWord(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func normalizeUser(w wireUser) User {
	role := displayWord(w.Role)
	if r, err := policy.ParseRole(w.Role); err == nil {
		role = r.Display()
	}
	if role == "" {
		role = policy.RoleUser.Display()
	}
	return User{
		ID:           firstNonEmpty(w.ID, w.LegacyID),
		Username:     firstNonEmpty(w.Username, w.Name),
		Email:        w.Email,
		Role:         role,
		Status:       firstNonEmpty(displayWord(w.Status), "Active"),
		AvatarURL:    w.AvatarURL,
		CreatedAt:    w.CreatedAt,
		LastLogin:    w.LastLogin,
		ArticleCount: w.ArticleCount,
	}
}

func normalizeAuthor(raw json.RawMessage) Author {
	if len(raw) == 0 || string(raw) == "null" {
		return Author{}
	}
	var id string
	if json.Unmarshal(raw, &id) == nil {
		return Author{ID: id}
	}
	var w wireUser
	if json.Unmarshal(raw, &w) != nil {
		return Author{}
	}
	return Author{ID: firstNonEmpty(w.ID, w.LegacyID), Username: firstNonEmpty(w.Username, w.Name)}
}

func normalizeArticleStatus(raw string) string {
	if s, err := policy.ParseArticleStatus(raw); err == nil {
		return s.Display()
	}
	return policy.StatusDraft.Display()
}

func normalizeArticle(w wireArticle) Article {
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	return Article{
		ID:          firstNonEmpty(w.ID, w.LegacyID),
		Title:       w.Title,
		Slug:        w.Slug,
		Description: w.Description,
		Content:     w.Content,
		CoverImage:  w.CoverImage,
		Status:      normalizeArticleStatus(w.Status),
		Category:    w.Category,
		Tags:        tags,
		Views:       w.Views,
		Likes:       w.Likes,
		WordCount:   w.WordCount,
		Author:      normalizeAuthor(w.Author),
		PublishedAt: w.PublishedAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func normalizeArticles(ws []wireArticle) []Article {
	out := make([]Article, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeArticle(w))
	}
	return out
}

func normalizeComment(w wireComment) Comment {
	return Comment{
		ID:        firstNonEmpty(w.ID, w.LegacyID),
		ArticleID: firstNonEmpty(w.ArticleID, w.Article),
		ParentID:  w.ParentID,
		Content:   w.Content,
		Author:    normalizeAuthor(w.Author),
		CreatedAt: w.CreatedAt,
	}
}

func normalizeComments(ws []wireComment) []Comment {
	out := make([]Comment, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeComment(w))
	}
	return out
}

func normalizeNewsletter(w wireNewsletter) Newsletter {
	status := string(policy.NewsletterDraft)
	if strings.EqualFold(w.Status, string(policy.NewsletterSent)) {
		status = string(policy.NewsletterSent)
	}
	return Newsletter{
		ID:          firstNonEmpty(w.ID, w.LegacyID),
		Subject:     w.Subject,
		Content:     w.Content,
		ContentHTML: w.ContentHTML,
		Status:      status,
		SentDate:    w.SentDate,
		Recipients:  w.Recipients,
		OpenRate:    firstNonEmpty(w.OpenRate, "0%"),
		ClickRate:   firstNonEmpty(w.ClickRate, "0%"),
		CreatedAt:   w.CreatedAt,
	}
}

func normalizeTable(w wireTable) DatabaseTable {
	return DatabaseTable{
		Name:         firstNonEmpty(w.Name, w.Table),
		Rows:         w.Rows,
		Size:         w.Size,
		LastModified: w.LastModified,
	}
}

func normalizeSession(w wireAuth, remember bool) Session {
	if w.RememberMe != nil {
		remember = *w.RememberMe
	}
	return Session{User: normalizeUser(w.User), Token: w.Token, ExpiresAt: w.ExpiresAt, RememberMe: remember}
}
