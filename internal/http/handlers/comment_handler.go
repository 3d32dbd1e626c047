// Comment HTTP handlers.
//
//   - POST /posts/{id}/comments   (create; Idempotency-Key aware)
//   - GET  /posts/{id}/comments   (oldest first)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/http/middleware"
)

// CreateCommentRequest is the JSON payload for commenting on a post. The post
// comes from the path; a post_id in the body is ignored.
type CreateCommentRequest struct {
	Content         string  `json:"content" binding:"required" example:"Nice write-up."`
	ParentCommentID *string `json:"parent_comment_id" example:"9b2f0a53-5f39-4c4e-a0b0-6f9e8f3b1f10"`
}

// CreateComment godoc
// @ID          createComment
// @Summary     Comment on a post
// @Description Adds a comment (optionally a reply to another comment on the same post) and increments the post's comment_count.
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       id               path    string  true   "Post ID"  format(uuid)
// @Param       body             body    handlers.CreateCommentRequest  true  "Comment"
// @Success     201  {object}  domain.Comment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Post or parent comment not found"
// @Router      /posts/{id}/comments [post]
func (h *Handlers) CreateComment(c *gin.Context) {
	ctx := c.Request.Context()

	if rec, replay := middleware.ReplayRecord(c); replay {
		cm, err := h.comments.Get(ctx, rec.ResourceID)
		if err != nil {
			failErr(c, err)
			return
		}
		c.Header(middleware.HeaderIdempotentReplay, "true")
		ok(c, rec.Status, cm)
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content, err := normalizeComment(req.Content)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	in := domain.NewComment{PostID: c.Param("id"), Content: content}
	if req.ParentCommentID != nil {
		if pid := strings.TrimSpace(*req.ParentCommentID); pid != "" {
			in.ParentCommentID = &pid
		}
	}

	cm, err := h.comments.Create(ctx, in, caller(c))
	if err != nil {
		failErr(c, err)
		return
	}
	h.rememberOutcome(c, cm.ID, http.StatusCreated)
	ok(c, http.StatusCreated, cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     List comments on a post
// @Description Oldest first. An unknown post yields an empty list.
// @Tags        Comments
// @Produce     json
// @Param       id   path     string  true  "Post ID"  format(uuid)
// @Success     200  {array}  domain.Comment
// @Router      /posts/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	items, err := h.comments.ListByPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Comment{}
	}
	ok(c, http.StatusOK, items)
}
