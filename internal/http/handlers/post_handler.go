// Post HTTP handlers.
//
//   - POST   /posts        (create; Idempotency-Key aware)
//   - GET    /posts        (list newest first, skip/limit, weak ETag)
//   - GET    /posts/{id}
//   - PUT    /posts/{id}   (author only, partial update)
//   - DELETE /posts/{id}   (author only, cascades to comments and votes)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/http/middleware"
	"github.com/tbourn/go-linkboard/internal/services"
	"github.com/tbourn/go-linkboard/internal/utils"
)

// defaultListLimit applies when limit is absent. Explicit limits are honored
// as given.
const defaultListLimit = 100

//
// DTOs
//

// CreatePostRequest is the JSON payload for submitting a post. A post is a
// link (url), a text post (content), or both.
type CreatePostRequest struct {
	Title   string  `json:"title" binding:"required" example:"Show LB: a tiny link board in Go"`
	Content *string `json:"content" example:"Built with Gin and an in-memory store."`
	URL     *string `json:"url" example:"https://example.com/linkboard"`
}

// UpdatePostRequest changes only the fields that are present.
type UpdatePostRequest struct {
	Title   *string `json:"title" example:"Show LB: a tiny link board in Go (v2)"`
	Content *string `json:"content"`
}

//
// Helpers
//

// listETag derives a weak validator from the store revision and the page
// bounds, so any write anywhere invalidates every cached page.
func listETag(rev uint64, skip, limit int) string {
	return fmt.Sprintf(`W/"posts:%d:%d:%d"`, rev, skip, limit)
}

// etagMatches implements the If-None-Match comparison for weak validators,
// including lists and "*".
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, part := range strings.Split(header, ",") {
		p := strings.TrimSpace(part)
		if p == "*" || strings.TrimPrefix(p, "W/") == want {
			return true
		}
	}
	return false
}

//
// Handlers
//

// CreatePost godoc
// @ID          createPost
// @Summary     Submit a post
// @Description Creates a link or text post authored by the caller. A repeated Idempotency-Key returns the original post with Idempotent-Replay: true.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreatePostRequest  true  "Post"
// @Success     201  {object}  domain.Post
// @Header      201  {string}  Idempotent-Replay  "true when served from a stored outcome"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()

	if rec, replay := middleware.ReplayRecord(c); replay {
		p, err := h.posts.Get(ctx, rec.ResourceID)
		if err != nil {
			failErr(c, err)
			return
		}
		c.Header(middleware.HeaderIdempotentReplay, "true")
		ok(c, rec.Status, p)
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	title, err := normalizeTitle(req.Title)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	content, err := normalizeBody(req.Content)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	link, err := normalizeURL(req.URL)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	p, err := h.posts.Create(ctx, domain.NewPost{Title: title, Content: content, URL: link}, caller(c))
	if err != nil {
		failErr(c, err)
		return
	}
	h.rememberOutcome(c, p.ID, http.StatusCreated)
	ok(c, http.StatusCreated, p)
}

// ListPosts godoc
// @ID          listPosts
// @Summary     List posts
// @Description Newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Posts
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"posts:12:0:100\")
// @Param       skip           query   int     false  "Posts to skip"   minimum(0) default(0)
// @Param       limit          query   int     false  "Page size; not capped"  default(100)
// @Success     200  {array}   domain.Post
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	skip, limit := utils.OffsetLimit(c.Query("skip"), c.Query("limit"), defaultListLimit, 0)

	// Read the revision before the page so a concurrent write can only make
	// the tag stale, never newer than the body it labels.
	etag := listETag(h.posts.Revision(), skip, limit)
	c.Header("ETag", etag)
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		notModified(c)
		return
	}

	items, err := h.posts.List(c.Request.Context(), skip, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Post{}
	}
	ok(c, http.StatusOK, items)
}

// GetPost godoc
// @ID          getPost
// @Summary     Get a post
// @Tags        Posts
// @Produce     json
// @Param       id   path      string  true  "Post ID"  format(uuid)
// @Success     200  {object}  domain.Post
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	p, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Edit a post
// @Description Only the author may edit. Absent fields are left unchanged; a new title also refreshes the slug.
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string  true  "Post ID"  format(uuid)
// @Param       body  body      handlers.UpdatePostRequest  true  "Fields to change"
// @Success     200   {object}  domain.Post
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403   {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404   {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	// Missing post and foreign authorship win over body problems.
	if err := h.posts.CheckAuthor(ctx, id, caller(c).ID); err != nil {
		failOwnership(c, err, "edit")
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	var patch domain.PostPatch
	if req.Title != nil {
		t, err := normalizeTitle(*req.Title)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		patch.Title = &t
	}
	if req.Content != nil {
		// An explicit empty body clears the text, unlike on create.
		s := normalizeText(*req.Content)
		if _, err := normalizeBody(&s); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		patch.Content = &s
	}

	p, err := h.posts.Update(ctx, id, patch)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Description Only the author may delete. Comments on the post and votes on both are removed too.
// @Tags        Posts
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Post ID"  format(uuid)
// @Success     200  {object}  handlers.MessageResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	actor := caller(c)

	if err := h.posts.CheckAuthor(ctx, id, actor.ID); err != nil {
		failOwnership(c, err, "delete")
		return
	}
	if err := h.posts.Delete(ctx, id); err != nil {
		failErr(c, err)
		return
	}

	lg := middleware.LoggerFrom(c)
	lg.Info().Str("post_id", id).Str("user_id", actor.ID).Msg("post deleted")
	ok(c, http.StatusOK, MessageResponse{Message: "Post deleted successfully"})
}

// failOwnership words the 403 after the attempted action.
func failOwnership(c *gin.Context, err error, action string) {
	if errors.Is(err, services.ErrNotAuthor) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not authorized to "+action+" this post")
		return
	}
	failErr(c, err)
}
