// Identity HTTP handlers.
//
//   - POST /register   (create an account)
//   - POST /token      (exchange username and password for a bearer token)
//   - GET  /users/me   (the authenticated caller)
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-linkboard/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=8,max=72" example:"correct-horse-battery"`
}

// TokenRequest accepts both an OAuth2 password form and JSON.
type TokenRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// TokenResponse carries a signed access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
	ExpiresAt   string `json:"expires_at" example:"2025-01-01T12:30:00Z"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Register a user
// @Description Creates an active account. Usernames are unique and case-sensitive.
// @Tags        Identity
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Account"
// @Success     201   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409   {object}  handlers.ErrorResponse  "Username taken"
// @Router      /register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username (3-50), valid email and password (8-72) required")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.ContainsAny(username, " \t\r\n") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username must not contain whitespace")
		return
	}

	u, err := h.users.Register(c.Request.Context(), username, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Token godoc
// @ID          token
// @Summary     Obtain an access token
// @Description Accepts application/x-www-form-urlencoded (OAuth2 password flow) or JSON.
// @Tags        Identity
// @Accept      x-www-form-urlencoded,json
// @Produce     json
// @Param       username  formData  string  true  "Username"
// @Param       password  formData  string  true  "Password"
// @Success     200  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or inactive user"
// @Failure     401  {object}  handlers.ErrorResponse  "Incorrect username or password"
// @Router      /token [post]
func (h *Handlers) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	tok, exp, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, TokenResponse{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresAt:   exp.UTC().Format(time.RFC3339),
	})
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Identity
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), caller(c).ID)
	if errors.Is(err, services.ErrNotFound) {
		// Token names a user this process no longer knows.
		c.Header("WWW-Authenticate", "Bearer")
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "could not validate credentials")
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

