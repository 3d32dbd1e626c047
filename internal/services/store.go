package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/repo"
)

// Store is the surface of the entity store used by the post, comment and vote
// services: transactions for multi-step mutations plus locked snapshot reads.
// *repo.Memory implements it.
type Store interface {
	View(fn func(tx *repo.Tx) error) error
	Update(fn func(tx *repo.Tx) error) error
	Revision() uint64

	GetPost(id string) (domain.Post, bool)
	ListPosts(skip, limit int) []domain.Post
	GetCommentsByPost(postID string) []domain.Comment
	DeletePost(id string) bool
}

// clock and id generation shared by the store-backed services.
type base struct {
	Store Store
	Now   func() time.Time
	NewID func() string
}

func newBase(store Store) base {
	return base{
		Store: store,
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}
