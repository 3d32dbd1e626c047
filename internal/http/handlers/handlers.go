// Package handlers exposes the linkboard REST API:
//   - identity:  POST /register, POST /token, GET /users/me
//   - posts:     POST/GET /posts, GET/PUT/DELETE /posts/{id}
//   - comments:  POST/GET /posts/{id}/comments
//   - votes:     POST /posts/{id}/vote, POST /comments/{id}/vote
//   - feeds:     GET /feed.rss, GET /feed.atom
//
// Handlers are transport-thin: they bind and normalize input, call the
// services through the interfaces below, and translate results and errors
// into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/http/middleware"
)

//
// Service contracts (context-aware)
//

// UserService registers and authenticates accounts.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
}

// PostService manages posts. Update and Delete do not check ownership;
// handlers call CheckAuthor first.
type PostService interface {
	Create(ctx context.Context, in domain.NewPost, author domain.Identity) (*domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context, skip, limit int) ([]domain.Post, error)
	Revision() uint64
	CheckAuthor(ctx context.Context, postID, actorID string) error
	Update(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

// CommentService manages comments.
type CommentService interface {
	Create(ctx context.Context, in domain.NewComment, author domain.Identity) (*domain.Comment, error)
	Get(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
}

// VoteService applies up/down votes.
type VoteService interface {
	VoteOnPost(ctx context.Context, postID string, voter domain.Identity, isUpvote bool) (*domain.Post, error)
	VoteOnComment(ctx context.Context, commentID string, voter domain.Identity, isUpvote bool) (*domain.Comment, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, username string) (string, time.Time, error)
}

// IdempotencyRecorder stores the outcome of a create request so a retry with
// the same Idempotency-Key can be answered from it.
type IdempotencyRecorder func(ctx context.Context, userID, scope, key, resourceID string, status int) error

// FeedOptions configures the RSS and Atom endpoints.
type FeedOptions struct {
	Title   string
	Size    int
	BaseURL string // public origin plus API base path, no trailing slash
}

//
// Handler wiring
//

// Deps carries everything Handlers needs. Remember may be nil, in which case
// Idempotency-Key headers are validated but outcomes are not stored.
type Deps struct {
	Users    UserService
	Posts    PostService
	Comments CommentService
	Votes    VoteService
	Tokens   TokenIssuer
	Remember IdempotencyRecorder
	Feed     FeedOptions
}

// Handlers groups the HTTP endpoints. It depends on abstract services to keep
// transport concerns separate from business logic.
type Handlers struct {
	users    UserService
	posts    PostService
	comments CommentService
	votes    VoteService
	tokens   TokenIssuer
	remember IdempotencyRecorder
	feed     FeedOptions
}

// New constructs a Handlers instance bound to d.
func New(d Deps) *Handlers {
	feed := d.Feed
	if feed.Size <= 0 {
		feed.Size = 20
	}
	if feed.Title == "" {
		feed.Title = "Linkboard"
	}
	return &Handlers{
		users:    d.Users,
		posts:    d.Posts,
		comments: d.Comments,
		votes:    d.Votes,
		tokens:   d.Tokens,
		remember: d.Remember,
		feed:     feed,
	}
}

// caller returns the identity RequireIdentity admitted. Routes that use it
// are always mounted behind RequireIdentity.
func caller(c *gin.Context) domain.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

// rememberOutcome stores the outcome of a successful create when the request carried
// an Idempotency-Key. Failures are logged and otherwise ignored: the resource
// exists either way.
func (h *Handlers) rememberOutcome(c *gin.Context, resourceID string, status int) {
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok || h.remember == nil {
		return
	}
	err := h.remember(c.Request.Context(), caller(c).ID, middleware.IdempotencyScope(c), key, resourceID, status)
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Str("resource_id", resourceID).Msg("idempotency record not stored")
	}
}

// WelcomeResponse is returned by the API root.
type WelcomeResponse struct {
	Message string `json:"message" example:"Welcome to the Linkboard API"`
}

// Welcome godoc
// @ID          welcome
// @Summary     API root
// @Tags        Meta
// @Produce     json
// @Success     200  {object}  handlers.WelcomeResponse
// @Router      / [get]
func (h *Handlers) Welcome(c *gin.Context) {
	ok(c, http.StatusOK, WelcomeResponse{Message: "Welcome to the Linkboard API"})
}
