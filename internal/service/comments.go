package service

import (
	"context"
	"fmt"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/db/sqlc"
	"inquill/internal/repository"

	"github.com/google/uuid"
)

const maxCommentLen = 2000

type CommentsService struct {
	store *repository.Store
}

func NewCommentsService(store *repository.Store) *CommentsService {
	return &CommentsService{store: store}
}

// ListByArticle returns top-level comments, newest first.
func (s *CommentsService) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]api.Comment, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	if _, err := s.store.Q.GetArticleByID(ctx, articleID); err != nil {
		if isNoRows(err) {
			return nil, notFound("Article not found")
		}
		return nil, err
	}
	rows, err := s.store.Q.ListTopLevelComments(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return mapComments(rows), nil
}

// ListReplies returns the direct replies to a comment, oldest first.
func (s *CommentsService) ListReplies(ctx context.Context, commentID uuid.UUID) ([]api.Comment, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	if _, err := s.store.Q.GetCommentByID(ctx, commentID); err != nil {
		if isNoRows(err) {
			return nil, notFound("Comment not found")
		}
		return nil, err
	}
	rows, err := s.store.Q.ListCommentReplies(ctx, uuid.NullUUID{UUID: commentID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return mapComments(rows), nil
}

func (s *CommentsService) Create(ctx context.Context, user auth.User, in api.CommentInput) (api.Comment, error) {
	if s.store == nil {
		return api.Comment{}, errNoStore
	}
	content := cleanDescription(in.Content)
	if content == "" {
		return api.Comment{}, invalid("Comment content is required")
	}
	if len([]rune(content)) > maxCommentLen {
		return api.Comment{}, invalid("Comment is too long")
	}
	if in.ArticleID == uuid.Nil {
		return api.Comment{}, invalid("articleId is required")
	}
	if _, err := s.store.Q.GetArticleByID(ctx, in.ArticleID); err != nil {
		if isNoRows(err) {
			return api.Comment{}, notFound("Article not found")
		}
		return api.Comment{}, err
	}

	var parent uuid.NullUUID
	if in.ParentID != nil && *in.ParentID != uuid.Nil {
		p, err := s.store.Q.GetCommentByID(ctx, *in.ParentID)
		if err != nil {
			if isNoRows(err) {
				return api.Comment{}, notFound("Parent comment not found")
			}
			return api.Comment{}, err
		}
		if p.ArticleID != in.ArticleID {
			return api.Comment{}, invalid("Parent comment belongs to another article")
		}
		parent = uuid.NullUUID{UUID: p.ID, Valid: true}
	}

	created, err := s.store.Q.CreateComment(ctx, sqlc.CreateCommentParams{
		ID:        uuid.New(),
		ArticleID: in.ArticleID,
		AuthorID:  user.ID,
		ParentID:  parent,
		Content:   content,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return api.Comment{}, notFound("Article not found")
		}
		return api.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return mapComment(sqlc.CommentWithAuthorRow{
		ID:             created.ID,
		ArticleID:      created.ArticleID,
		AuthorID:       created.AuthorID,
		ParentID:       created.ParentID,
		Content:        created.Content,
		CreatedAt:      created.CreatedAt,
		AuthorUsername: user.Username,
	}), nil
}

// Delete removes a comment together with its replies.
func (s *CommentsService) Delete(ctx context.Context, user auth.User, id uuid.UUID) error {
	if s.store == nil {
		return errNoStore
	}
	c, err := s.store.Q.GetCommentByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return notFound("Comment not found")
		}
		return err
	}
	if c.AuthorID != user.ID && !user.Role.IsAdmin() {
		return forbidden("Not authorized to delete this comment")
	}
	if _, err := s.store.Q.DeleteCommentThread(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
