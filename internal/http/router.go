// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// identity, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-linkboard/internal/auth"
	"github.com/tbourn/go-linkboard/internal/config"
	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/http/handlers"
	"github.com/tbourn/go-linkboard/internal/http/middleware"
	"github.com/tbourn/go-linkboard/internal/repo"
	"github.com/tbourn/go-linkboard/internal/services"
)

// identityResolver turns a bearer token into the caller. Tokens of users that
// were deactivated after issuance resolve to middleware.ErrInactiveIdentity.
func identityResolver(issuer *auth.Issuer, users *services.UserService) middleware.IdentityResolver {
	return func(ctx context.Context, token string) (domain.Identity, error) {
		claims, err := issuer.Parse(token)
		if err != nil {
			return domain.Identity{}, err
		}
		u, err := users.Resolve(ctx, claims.Subject, claims.UserID)
		if errors.Is(err, services.ErrInactiveUser) {
			return domain.Identity{}, fmt.Errorf("%w: %v", middleware.ErrInactiveIdentity, err)
		}
		if err != nil {
			return domain.Identity{}, err
		}
		return domain.IdentityOf(*u), nil
	}
}

// idempotencyLookup adapts repo.GetIdempotency to the middleware. A miss is
// not an error.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, scope, key string, now time.Time) (*middleware.IdempotencyRecord, error) {
		rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &middleware.IdempotencyRecord{ResourceID: rec.ResourceID, Status: rec.Status}, nil
	}
}

// idempotencyRecorder stores create outcomes for ttl. A concurrent retry that
// already stored the same key is fine.
func idempotencyRecorder(db *gorm.DB, ttl time.Duration) handlers.IdempotencyRecorder {
	return func(ctx context.Context, userID, scope, key, resourceID string, status int) error {
		_, err := repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, ttl)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil
		}
		return err
	}
}

// corsConfig builds the gin-contrib/cors settings. An empty allowlist means
// any origin, without credentials.
func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", middleware.HeaderIdempotentReplay},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cc
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. Entities live in mem; db only holds idempotency records.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip and metrics
//  6. Authenticate: resolve the bearer token (never rejects)
//  7. Idempotency validator (needs the user; before rate limiting to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, mem *repo.Memory, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	users := services.NewUserService(mem, cfg.Auth.BcryptCost)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())

	// 1 MiB covers the largest post body with room to spare.
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.Authenticate(identityResolver(issuer, users)))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db)))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	rl.WritesOnly = cfg.RateWritesOnly
	r.Use(rl.Handler())

	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
	}
	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))

	// Reads carry validators, so they revalidate instead of being cached blind.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Users:    users,
		Posts:    services.NewPostService(mem),
		Comments: services.NewCommentService(mem),
		Votes:    services.NewVoteService(mem),
		Tokens:   issuer,
		Remember: idempotencyRecorder(db, cfg.IdempotencyTTL),
		Feed: handlers.FeedOptions{
			Title:   cfg.Feed.Title,
			Size:    cfg.Feed.Size,
			BaseURL: cfg.Feed.PublicBaseURL + apiPrefix(cfg.APIBasePath),
		},
	})
	authed := middleware.RequireIdentity()

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/", h.Welcome)

		// Identity
		api.POST("/register", h.Register)
		api.POST("/token", h.Token)
		api.GET("/users/me", authed, h.Me)

		// Posts
		api.POST("/posts", authed, h.CreatePost)
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)
		api.PUT("/posts/:id", authed, h.UpdatePost)
		api.DELETE("/posts/:id", authed, h.DeletePost)
		api.POST("/posts/:id/vote", authed, h.VotePost)

		// Comments
		api.POST("/posts/:id/comments", authed, h.CreateComment)
		api.GET("/posts/:id/comments", h.ListComments)
		api.POST("/comments/:id/vote", authed, h.VoteComment)

		// Feeds
		api.GET("/feed.rss", h.RSSFeed)
		api.GET("/feed.atom", h.AtomFeed)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// apiPrefix is the base path as it appears in absolute links ("" for root).
func apiPrefix(base string) string {
	if base == "/" {
		return ""
	}
	return base
}
