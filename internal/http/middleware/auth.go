// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication in two stages:
//
//   - Authenticate() runs globally. When an "Authorization: Bearer <token>"
//     header is present it resolves the token to an identity and stores it in
//     the Gin context ("userID", "username"). Anonymous requests pass through
//     untouched, so public routes stay public.
//   - RequireIdentity() guards individual routes. It rejects requests without
//     a resolved identity with 401 and a WWW-Authenticate challenge, or 400
//     when the account is inactive.
//
// Token verification and user lookup are injected through IdentityResolver so
// this package stays free of service dependencies.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-linkboard/internal/domain"
)

// ErrInactiveIdentity must be returned (or wrapped) by an IdentityResolver
// when the token is valid but the account is deactivated.
var ErrInactiveIdentity = errors.New("inactive user")

// IdentityResolver turns a raw bearer token into the caller identity.
type IdentityResolver func(ctx context.Context, token string) (domain.Identity, error)

const (
	ctxKeyUserID   = "userID"
	ctxKeyUsername = "username"
	ctxKeyAuthErr  = "auth.err"
)

// Authenticate resolves bearer tokens when present. A malformed or rejected
// token does not abort the request; the failure is remembered so that
// RequireIdentity can report it on protected routes.
func Authenticate(resolve IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		id, err := resolve(c.Request.Context(), token)
		if err != nil {
			c.Set(ctxKeyAuthErr, err)
			c.Next()
			return
		}
		c.Set(ctxKeyUserID, id.ID)
		c.Set(ctxKeyUsername, id.Username)
		c.Next()
	}
}

// RequireIdentity aborts unless Authenticate stored an identity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); ok {
			c.Next()
			return
		}
		rid := c.Writer.Header().Get(requestIDHeader)
		if v, ok := c.Get(ctxKeyAuthErr); ok {
			if err, _ := v.(error); errors.Is(err, ErrInactiveIdentity) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"request_id": rid,
					"code":       "inactive_user",
					"message":    "inactive user",
				})
				return
			}
		}
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"request_id": rid,
			"code":       "unauthorized",
			"message":    "could not validate credentials",
		})
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	id := c.GetString(ctxKeyUserID)
	if id == "" {
		return domain.Identity{}, false
	}
	return domain.Identity{ID: id, Username: c.GetString(ctxKeyUsername)}, true
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
