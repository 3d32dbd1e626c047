package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/repo"
)

func TestWelcome(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(call{method: http.MethodGet, path: "/"})
	wantStatus(t, w, http.StatusOK)
	if got := decode[WelcomeResponse](t, w); !strings.Contains(got.Message, "Linkboard") {
		t.Fatalf("welcome = %+v", got)
	}
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(call{method: http.MethodPost, path: "/register", body: RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass",
	}})
	wantStatus(t, w, http.StatusCreated)
	u := decode[map[string]any](t, w)
	if u["username"] != "alice" || u["is_active"] != true || u["karma"] != float64(0) {
		t.Fatalf("unexpected user %v", u)
	}
	if _, leaked := u["password_hash"]; leaked || strings.Contains(w.Body.String(), "$2a$") {
		t.Fatalf("password hash serialized: %s", w.Body.String())
	}

	// Same username, other fields different.
	w = e.do(call{method: http.MethodPost, path: "/register", body: RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "another-pass",
	}})
	wantError(t, w, http.StatusConflict, ErrCodeConflict)

	// Usernames are case-sensitive.
	w = e.do(call{method: http.MethodPost, path: "/register", body: RegisterRequest{
		Username: "Alice", Email: "a2@example.com", Password: "another-pass",
	}})
	wantStatus(t, w, http.StatusCreated)
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)
	cases := map[string]any{
		"not json":       "{",
		"missing email":  map[string]string{"username": "bob", "password": "password1"},
		"bad email":      RegisterRequest{Username: "bob", Email: "nope", Password: "password1"},
		"short password": RegisterRequest{Username: "bob", Email: "b@example.com", Password: "short"},
		"short username": RegisterRequest{Username: "bo", Email: "b@example.com", Password: "password1"},
		"inner space":    RegisterRequest{Username: "bob smith", Email: "b@example.com", Password: "password1"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := e.do(call{method: http.MethodPost, path: "/register", body: body})
			wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
		})
	}
}

func TestToken_FormAndJSON(t *testing.T) {
	e := newTestEnv(t)
	e.login("alice") // password is "password-alice"

	// OAuth2 password form.
	form := url.Values{"username": {"alice"}, "password": {"password-alice"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	wantStatus(t, w, http.StatusOK)
	tr := decode[TokenResponse](t, w)
	if tr.TokenType != "bearer" || tr.AccessToken == "" {
		t.Fatalf("token response = %+v", tr)
	}
	if exp, err := time.Parse(time.RFC3339, tr.ExpiresAt); err != nil || !exp.After(time.Now()) {
		t.Fatalf("expires_at = %q (%v)", tr.ExpiresAt, err)
	}

	// The token authenticates /users/me.
	w = e.do(call{method: http.MethodGet, path: "/users/me", token: tr.AccessToken})
	wantStatus(t, w, http.StatusOK)
	if me := decode[domain.User](t, w); me.Username != "alice" {
		t.Fatalf("me = %+v", me)
	}

	// JSON body works too.
	w = e.do(call{method: http.MethodPost, path: "/token", body: TokenRequest{Username: "alice", Password: "password-alice"}})
	wantStatus(t, w, http.StatusOK)
}

func TestToken_Failures(t *testing.T) {
	e := newTestEnv(t)
	e.login("alice")

	cases := []struct {
		name string
		req  TokenRequest
	}{
		{"wrong password", TokenRequest{Username: "alice", Password: "nope"}},
		{"unknown user", TokenRequest{Username: "mallory", Password: "password-alice"}},
		{"case differs", TokenRequest{Username: "ALICE", Password: "password-alice"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(call{method: http.MethodPost, path: "/token", body: tc.req})
			er := wantError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
			if er.Message != "incorrect username or password" {
				t.Fatalf("message = %q", er.Message)
			}
			if w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Fatalf("missing WWW-Authenticate challenge")
			}
		})
	}

	w := e.do(call{method: http.MethodPost, path: "/token", body: map[string]string{"username": "alice"}})
	wantError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestInactiveUser(t *testing.T) {
	e := newTestEnv(t)
	id, tok := e.login("carol")

	// Deactivate in place.
	if err := e.mem.Update(func(tx *repo.Tx) error {
		tx.UserByID(id.ID).IsActive = false
		return nil
	}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	w := e.do(call{method: http.MethodPost, path: "/token", body: TokenRequest{Username: "carol", Password: "password-carol"}})
	wantError(t, w, http.StatusBadRequest, ErrCodeInactiveUser)

	// An already issued token stops working on protected routes.
	w = e.do(call{method: http.MethodGet, path: "/users/me", token: tok})
	wantError(t, w, http.StatusBadRequest, ErrCodeInactiveUser)
}

func TestMe_Unauthorized(t *testing.T) {
	e := newTestEnv(t)
	for _, tok := range []string{"", "garbage"} {
		w := e.do(call{method: http.MethodGet, path: "/users/me", token: tok})
		wantError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
		if w.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("missing challenge for token %q", tok)
		}
	}
}
