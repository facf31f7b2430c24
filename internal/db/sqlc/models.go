package sqlc

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	AvatarUrl    sql.NullString
	CreatedAt    time.Time
	LastLoginAt  sql.NullTime
}

type Article struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	Title       string
	Slug        string
	Description string
	Content     json.RawMessage
	CoverImage  sql.NullString
	Status      string
	Category    string
	Tags        []string
	Views       int64
	Likes       int64
	WordCount   int32
	PublishedAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	ID        uuid.UUID
	ArticleID uuid.UUID
	AuthorID  uuid.UUID
	ParentID  uuid.NullUUID
	Content   string
	CreatedAt time.Time
}

type Newsletter struct {
	ID         uuid.UUID
	Subject    string
	Content    string
	Status     string
	SentAt     sql.NullTime
	Recipients int32
	OpenRate   string
	ClickRate  string
	CreatedBy  uuid.NullUUID
	CreatedAt  time.Time
}

type ModerationLog struct {
	ID          uuid.UUID
	AdminUserID uuid.NullUUID
	Action      string
	TargetType  string
	TargetID    string
	Details     json.RawMessage
	CreatedAt   time.Time
}
