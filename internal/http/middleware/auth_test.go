package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-linkboard/internal/domain"
)

func fakeResolver(ctx context.Context, token string) (domain.Identity, error) {
	switch token {
	case "good":
		return domain.Identity{ID: "u1", Username: "alice"}, nil
	case "inactive":
		return domain.Identity{}, fmt.Errorf("resolve: %w", ErrInactiveIdentity)
	default:
		return domain.Identity{}, errors.New("bad token")
	}
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Authenticate(fakeResolver))
	r.GET("/public", func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "ok": ok})
	})
	r.GET("/private", RequireIdentity(), func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "username": id.Username})
	})
	return r
}

func TestAuthenticate_PublicRoutes(t *testing.T) {
	r := newAuthRouter()
	cases := []struct {
		name   string
		header string
		wantOK bool
	}{
		{"anonymous", "", false},
		{"valid bearer", "Bearer good", true},
		{"lowercase scheme", "bearer good", true},
		{"invalid bearer stays anonymous", "Bearer nope", false},
		{"other scheme ignored", "Basic Zm9vOmJhcg==", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/public", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("public route status %d", w.Code)
			}
			var body struct {
				ID string `json:"id"`
				OK bool   `json:"ok"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.OK != tc.wantOK {
				t.Fatalf("identity present = %v; want %v", body.OK, tc.wantOK)
			}
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	r := newAuthRouter()
	cases := []struct {
		name      string
		header    string
		want      int
		wantCode  string
		challenge bool
	}{
		{"valid", "Bearer good", http.StatusOK, "", false},
		{"missing", "", http.StatusUnauthorized, "unauthorized", true},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "unauthorized", true},
		{"rejected token", "Bearer nope", http.StatusUnauthorized, "unauthorized", true},
		{"inactive user", "Bearer inactive", http.StatusBadRequest, "inactive_user", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d; want %d (%s)", w.Code, tc.want, w.Body.String())
			}
			if got := w.Header().Get("WWW-Authenticate") == "Bearer"; got != tc.challenge {
				t.Fatalf("WWW-Authenticate present = %v; want %v", got, tc.challenge)
			}
			var body map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if tc.wantCode != "" {
				if body["code"] != tc.wantCode || body["request_id"] == "" {
					t.Fatalf("unexpected body %v", body)
				}
			} else if body["username"] != "alice" {
				t.Fatalf("identity not exposed: %v", body)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		tok string
		ok  bool
	}{
		"Bearer abc":    {"abc", true},
		"  Bearer abc ": {"abc", true},
		"BEARER abc":    {"abc", true},
		"Bearer":        {"", false},
		"Token abc":     {"", false},
		"":              {"", false},
	}
	for in, want := range cases {
		tok, ok := bearerToken(in)
		if tok != want.tok || ok != want.ok {
			t.Fatalf("bearerToken(%q) = %q, %v; want %q, %v", in, tok, ok, want.tok, want.ok)
		}
	}
}
