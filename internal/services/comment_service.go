package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/repo"
)

// CommentService creates and lists comments.
type CommentService struct {
	base
}

// NewCommentService returns a CommentService backed by store.
func NewCommentService(store Store) *CommentService {
	return &CommentService{base: newBase(store)}
}

// Create attaches a comment to in.PostID and bumps the post's comment_count
// by one. The post lookup, the parent lookup and both writes happen under one
// store lock, so a concurrent delete cannot leave an orphan.
//
// Errors: ErrPostNotFound, ErrParentNotFound.
func (s *CommentService) Create(ctx context.Context, in domain.NewComment, author domain.Identity) (*domain.Comment, error) {
	_, span := otel.Tracer("services/CommentService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("post.id", in.PostID),
			attribute.String("user.id", author.ID),
		),
	)
	defer span.End()

	var out domain.Comment
	err := s.Store.Update(func(tx *repo.Tx) error {
		post := tx.Post(in.PostID)
		if post == nil {
			return ErrPostNotFound
		}
		if in.ParentCommentID != nil {
			parent := tx.Comment(*in.ParentCommentID)
			if parent == nil || parent.PostID != in.PostID {
				return ErrParentNotFound
			}
		}
		c := domain.Comment{
			ID:              s.NewID(),
			Content:         in.Content,
			PostID:          in.PostID,
			AuthorID:        author.ID,
			AuthorUsername:  author.Username,
			ParentCommentID: in.ParentCommentID,
			CreatedAt:       s.Now(),
		}.Clone()
		tx.InsertComment(&c)
		post.CommentCount++
		out = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	commentsCreated.Inc()
	return &out, nil
}

// Get returns the comment or ErrCommentNotFound.
func (s *CommentService) Get(ctx context.Context, id string) (*domain.Comment, error) {
	var out domain.Comment
	err := s.Store.View(func(tx *repo.Tx) error {
		c := tx.Comment(id)
		if c == nil {
			return ErrCommentNotFound
		}
		out = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByPost returns the comments of postID, oldest first. An unknown post
// yields an empty list, not an error.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	return s.Store.GetCommentsByPost(postID), nil
}
