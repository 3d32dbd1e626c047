package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/tbourn/go-linkboard/internal/auth"
	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/http/middleware"
	"github.com/tbourn/go-linkboard/internal/repo"
	"github.com/tbourn/go-linkboard/internal/services"
)

// idemMemo is an in-memory stand-in for the SQLite idempotency table.
type idemMemo struct {
	mu   sync.Mutex
	recs map[string]middleware.IdempotencyRecord
}

func (m *idemMemo) lookup(_ context.Context, userID, scope, key string, _ time.Time) (*middleware.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[userID+"|"+scope+"|"+key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *idemMemo) remember(_ context.Context, userID, scope, key, resourceID string, status int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[userID+"|"+scope+"|"+key] = middleware.IdempotencyRecord{ResourceID: resourceID, Status: status}
	return nil
}

// testEnv wires real services over a fresh in-memory store behind the same
// middleware the router installs for identity and idempotency.
type testEnv struct {
	t        *testing.T
	r        *gin.Engine
	mem      *repo.Memory
	users    *services.UserService
	posts    *services.PostService
	comments *services.CommentService
	votes    *services.VoteService
	issuer   *auth.Issuer
	idem     *idemMemo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith lets a test replace services before routes are mounted.
func newTestEnvWith(t *testing.T, tweak func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := repo.NewMemory()
	e := &testEnv{
		t:        t,
		mem:      mem,
		users:    services.NewUserService(mem, bcrypt.MinCost),
		posts:    services.NewPostService(mem),
		comments: services.NewCommentService(mem),
		votes:    services.NewVoteService(mem),
		issuer:   auth.NewIssuer("test-secret", "test", time.Hour),
		idem:     &idemMemo{recs: map[string]middleware.IdempotencyRecord{}},
	}
	deps := Deps{
		Users:    e.users,
		Posts:    e.posts,
		Comments: e.comments,
		Votes:    e.votes,
		Tokens:   e.issuer,
		Remember: e.idem.remember,
		Feed:     FeedOptions{Title: "Test Board", Size: 2, BaseURL: "https://lb.example/api/v1"},
	}
	if tweak != nil {
		tweak(&deps)
	}
	h := New(deps)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Authenticate(e.resolve))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, e.idem.lookup))

	authed := middleware.RequireIdentity()
	r.GET("/", h.Welcome)
	r.POST("/register", h.Register)
	r.POST("/token", h.Token)
	r.GET("/users/me", authed, h.Me)
	r.POST("/posts", authed, h.CreatePost)
	r.GET("/posts", h.ListPosts)
	r.GET("/posts/:id", h.GetPost)
	r.PUT("/posts/:id", authed, h.UpdatePost)
	r.DELETE("/posts/:id", authed, h.DeletePost)
	r.POST("/posts/:id/vote", authed, h.VotePost)
	r.POST("/posts/:id/comments", authed, h.CreateComment)
	r.GET("/posts/:id/comments", h.ListComments)
	r.POST("/comments/:id/vote", authed, h.VoteComment)
	r.GET("/feed.rss", h.RSSFeed)
	r.GET("/feed.atom", h.AtomFeed)
	e.r = r
	return e
}

func (e *testEnv) resolve(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := e.issuer.Parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	u, err := e.users.Resolve(ctx, claims.Subject, claims.UserID)
	if errors.Is(err, services.ErrInactiveUser) {
		return domain.Identity{}, fmt.Errorf("%w: %v", middleware.ErrInactiveIdentity, err)
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.IdentityOf(*u), nil
}

// login registers username and returns a bearer token for it.
func (e *testEnv) login(username string) (domain.Identity, string) {
	e.t.Helper()
	u, err := e.users.Register(context.Background(), username, username+"@example.com", "password-"+username)
	if err != nil {
		e.t.Fatalf("register %s: %v", username, err)
	}
	tok, _, err := e.issuer.Issue(u.ID, u.Username)
	if err != nil {
		e.t.Fatalf("issue: %v", err)
	}
	return domain.IdentityOf(*u), tok
}

type call struct {
	method, path string
	token        string
	body         any
	headers      map[string]string
}

func (e *testEnv) do(cl call) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := cl.body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(cl.method, cl.path, &buf)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	for k, v := range cl.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T from %q: %v", v, w.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	wantStatus(t, w, status)
	er := decode[ErrorResponse](t, w)
	if er.Code != code || er.RequestID == "" {
		t.Fatalf("error envelope = %+v; want code %q with request id", er, code)
	}
	return er
}

func strp(s string) *string { return &s }

