// Vote HTTP handlers.
//
//   - POST /posts/{id}/vote
//   - POST /comments/{id}/vote
//
// Each caller holds at most one vote per target. Repeating a vote is a no-op
// and voting the other way flips it; there is no retraction.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VoteRequest carries the vote direction. A pointer so that a missing field
// is rejected instead of read as a downvote.
type VoteRequest struct {
	IsUpvote *bool `json:"is_upvote" binding:"required" example:"true"`
}

func bindVote(c *gin.Context) (bool, bool) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsUpvote == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "is_upvote (boolean) required")
		return false, false
	}
	return *req.IsUpvote, true
}

// VotePost godoc
// @ID          votePost
// @Summary     Vote on a post
// @Tags        Votes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string  true  "Post ID"  format(uuid)
// @Param       body  body      handlers.VoteRequest  true  "Direction"
// @Success     200   {object}  domain.Post
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404   {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id}/vote [post]
func (h *Handlers) VotePost(c *gin.Context) {
	up, valid := bindVote(c)
	if !valid {
		return
	}
	p, err := h.votes.VoteOnPost(c.Request.Context(), c.Param("id"), caller(c), up)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// VoteComment godoc
// @ID          voteComment
// @Summary     Vote on a comment
// @Tags        Votes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string  true  "Comment ID"  format(uuid)
// @Param       body  body      handlers.VoteRequest  true  "Direction"
// @Success     200   {object}  domain.Comment
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404   {object}  handlers.ErrorResponse  "Comment not found"
// @Router      /comments/{id}/vote [post]
func (h *Handlers) VoteComment(c *gin.Context) {
	up, valid := bindVote(c)
	if !valid {
		return
	}
	cm, err := h.votes.VoteOnComment(c.Request.Context(), c.Param("id"), caller(c), up)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cm)
}
