// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for create endpoints (POST). It
// validates an Idempotency-Key request header, looks up a previously completed
// request for the same (user, scope, key), and annotates the request context
// so downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - compute the scope the key is bound to (IdempotencyScope)
//   - detect a replay and fetch its stored outcome (IsReplay, ReplayRecord)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Persistence stays behind the narrow IdempotencyLookup function type.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay is set to "true" on responses served from a stored
// outcome.
const HeaderIdempotentReplay = "Idempotent-Replay"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // *IdempotencyRecord when a stored outcome exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// IdempotencyRecord is the stored outcome of a completed create request.
type IdempotencyRecord struct {
	ResourceID string
	Status     int
}

// IdempotencyLookup returns the stored outcome for (userID, scope, key) that is
// still valid at now, or nil when none exists. Errors are treated as "no
// replay" and never block the request.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (*IdempotencyRecord, error)

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs to the lookup implementation.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative token
	// pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyScope binds a key to the operation it was sent with: method plus
// request path, e.g. "POST /api/v1/posts/42/comments".
func IdempotencyScope(c *gin.Context) string {
	return c.Request.Method + " " + c.Request.URL.Path
}

// ReplayRecord returns the stored outcome found by IdempotencyValidator.
func ReplayRecord(c *gin.Context) (*IdempotencyRecord, bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return nil, false
	}
	rec, _ := v.(*IdempotencyRecord)
	return rec, rec != nil
}

// IsReplay reports whether the request repeats a completed operation.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayRecord(c)
	return ok
}

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context, and asks lookup for a prior outcome.
//
// Behavior:
//   - Header absent: no-op.
//   - Header invalid: 400 with a compact error body.
//   - No authenticated user: the key is stashed but no lookup happens, since
//     keys are scoped per user.
//   - Lookup hit: replay record and rate-bypass flag are set.
//
// The middleware does not write the replayed response itself; handlers fetch
// the stored resource and answer with HeaderIdempotentReplay.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if uid := c.GetString(ctxKeyUserID); uid != "" {
				rec, err := lookup(c.Request.Context(), uid, IdempotencyScope(c), key, time.Now().UTC())
				if err == nil && rec != nil {
					c.Set(ctxKeyIdemReplay, rec)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}
