// Package services – PostService
//
// PostService creates, reads, edits and deletes posts. Every mutation runs in
// a single store Update so the post and anything it cascades to change
// together. Callers receive copies; live records never leave the store.
//
// Ownership is not enforced by Update or Delete. Handlers call CheckAuthor
// first and map ErrNotAuthor to 403.
package services

import (
	"context"

	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/repo"
)

// PostService provides post-level operations.
type PostService struct {
	base
}

// NewPostService returns a PostService backed by store.
func NewPostService(store Store) *PostService {
	return &PostService{base: newBase(store)}
}

// Create stores a new post authored by author with zeroed counters.
func (s *PostService) Create(ctx context.Context, in domain.NewPost, author domain.Identity) (*domain.Post, error) {
	_, span := otel.Tracer("services/PostService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", author.ID)),
	)
	defer span.End()

	p := domain.Post{
		ID:             s.NewID(),
		Title:          in.Title,
		Slug:           slug.Make(in.Title),
		Content:        in.Content,
		URL:            in.URL,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		CreatedAt:      s.Now(),
	}.Clone()
	var out domain.Post
	err := s.Store.Update(func(tx *repo.Tx) error {
		tx.InsertPost(&p)
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	postsCreated.Inc()
	span.SetAttributes(attribute.String("post.id", out.ID))
	return &out, nil
}

// Get returns the post or ErrPostNotFound.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	p, ok := s.Store.GetPost(id)
	if !ok {
		return nil, ErrPostNotFound
	}
	return &p, nil
}

// List returns posts newest first, sliced to [skip, skip+limit).
func (s *PostService) List(ctx context.Context, skip, limit int) ([]domain.Post, error) {
	return s.Store.ListPosts(skip, limit), nil
}

// Revision identifies the current state of the store for cache validation.
func (s *PostService) Revision() uint64 {
	return s.Store.Revision()
}

// CheckAuthor returns ErrPostNotFound when the post is absent and
// ErrNotAuthor when actorID did not write it.
func (s *PostService) CheckAuthor(ctx context.Context, postID, actorID string) error {
	return s.Store.View(func(tx *repo.Tx) error {
		p := tx.Post(postID)
		if p == nil {
			return ErrPostNotFound
		}
		if p.AuthorID != actorID {
			return ErrNotAuthor
		}
		return nil
	})
}

// Update applies the non-nil fields of patch. A changed title also refreshes
// the slug.
func (s *PostService) Update(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	_, span := otel.Tracer("services/PostService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("post.id", id)),
	)
	defer span.End()

	var out domain.Post
	err := s.Store.Update(func(tx *repo.Tx) error {
		p := tx.Post(id)
		if p == nil {
			return ErrPostNotFound
		}
		if patch.Title != nil {
			p.Title = *patch.Title
			p.Slug = slug.Make(p.Title)
		}
		if patch.Content != nil {
			c := *patch.Content
			p.Content = &c
		}
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the post, its comments and the votes on them.
func (s *PostService) Delete(ctx context.Context, id string) error {
	_, span := otel.Tracer("services/PostService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("post.id", id)),
	)
	defer span.End()

	if !s.Store.DeletePost(id) {
		return ErrPostNotFound
	}
	return nil
}
