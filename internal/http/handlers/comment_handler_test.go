package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/http/middleware"
)

func (e *testEnv) comment(tok, postID string, body map[string]any) domain.Comment {
	e.t.Helper()
	w := e.do(call{method: http.MethodPost, path: "/posts/" + postID + "/comments", token: tok, body: body})
	wantStatus(e.t, w, http.StatusCreated)
	return decode[domain.Comment](e.t, w)
}

func TestCreateComment(t *testing.T) {
	e := newTestEnv(t)
	_, aliceTok := e.login("alice")
	bob, bobTok := e.login("bob")
	p := e.createPost(aliceTok, "discuss", nil)

	top := e.comment(bobTok, p.ID, map[string]any{"content": "  first!\r\n"})
	if top.Content != "first!" || top.PostID != p.ID || top.AuthorID != bob.ID || top.AuthorUsername != "bob" {
		t.Fatalf("unexpected comment %+v", top)
	}
	if top.ParentCommentID != nil || top.Score != 0 {
		t.Fatalf("fresh comment should be top-level and unscored: %+v", top)
	}

	reply := e.comment(aliceTok, p.ID, map[string]any{"content": "reply", "parent_comment_id": top.ID})
	if reply.ParentCommentID == nil || *reply.ParentCommentID != top.ID {
		t.Fatalf("parent not kept: %+v", reply)
	}

	// A blank parent id means top-level.
	blank := e.comment(aliceTok, p.ID, map[string]any{"content": "top again", "parent_comment_id": "  "})
	if blank.ParentCommentID != nil {
		t.Fatalf("blank parent should be dropped")
	}

	w := e.do(call{method: http.MethodGet, path: "/posts/" + p.ID})
	if got := decode[domain.Post](t, w); got.CommentCount != 3 {
		t.Fatalf("comment_count = %d; want 3", got.CommentCount)
	}
}

func TestCreateComment_Rejections(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.login("alice")
	p := e.createPost(tok, "host", nil)
	other := e.createPost(tok, "elsewhere", nil)
	foreign := e.comment(tok, other.ID, map[string]any{"content": "on another post"})

	cases := []struct {
		name   string
		postID string
		body   map[string]any
		status int
		code   string
		msg    string
	}{
		{"missing post", "nope", map[string]any{"content": "x"}, http.StatusNotFound, ErrCodeNotFound, "post not found"},
		{"missing parent", p.ID, map[string]any{"content": "x", "parent_comment_id": "ghost"}, http.StatusNotFound, ErrCodeNotFound, "parent comment not found"},
		{"parent on other post", p.ID, map[string]any{"content": "x", "parent_comment_id": foreign.ID}, http.StatusNotFound, ErrCodeNotFound, "parent comment not found"},
		{"no content", p.ID, map[string]any{}, http.StatusBadRequest, ErrCodeBadRequest, "content required"},
		{"whitespace content", p.ID, map[string]any{"content": " \n "}, http.StatusBadRequest, ErrCodeValidation, errContentEmpty.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(call{method: http.MethodPost, path: "/posts/" + tc.postID + "/comments", token: tok, body: tc.body})
			er := wantError(t, w, tc.status, tc.code)
			if er.Message != tc.msg {
				t.Fatalf("message = %q; want %q", er.Message, tc.msg)
			}
		})
	}

	w := e.do(call{method: http.MethodPost, path: "/posts/" + p.ID + "/comments", body: map[string]any{"content": "anon"}})
	wantError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)

	if got := decode[domain.Post](t, e.do(call{method: http.MethodGet, path: "/posts/" + p.ID})); got.CommentCount != 0 {
		t.Fatalf("failed creates bumped comment_count to %d", got.CommentCount)
	}
}

func TestCreateComment_IdempotentReplay(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.login("alice")
	p := e.createPost(tok, "host", nil)
	q := e.createPost(tok, "other host", nil)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "c-1"}

	w1 := e.do(call{method: http.MethodPost, path: "/posts/" + p.ID + "/comments", token: tok, body: map[string]any{"content": "hi"}, headers: hdr})
	wantStatus(t, w1, http.StatusCreated)
	w2 := e.do(call{method: http.MethodPost, path: "/posts/" + p.ID + "/comments", token: tok, body: map[string]any{"content": "hi"}, headers: hdr})
	wantStatus(t, w2, http.StatusCreated)
	if decode[domain.Comment](t, w1).ID != decode[domain.Comment](t, w2).ID {
		t.Fatalf("replay created a new comment")
	}
	if w2.Header().Get(middleware.HeaderIdempotentReplay) != "true" {
		t.Fatalf("replay header missing")
	}

	// The same key on another post is a different operation.
	w3 := e.do(call{method: http.MethodPost, path: "/posts/" + q.ID + "/comments", token: tok, body: map[string]any{"content": "hi"}, headers: hdr})
	wantStatus(t, w3, http.StatusCreated)
	if w3.Header().Get(middleware.HeaderIdempotentReplay) != "" {
		t.Fatalf("key leaked across posts")
	}

	if got := decode[domain.Post](t, e.do(call{method: http.MethodGet, path: "/posts/" + p.ID})); got.CommentCount != 1 {
		t.Fatalf("comment_count = %d; want 1", got.CommentCount)
	}
}

func TestListComments(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.login("alice")
	p := e.createPost(tok, "thread", nil)
	want := []string{"one", "two", "three"}
	for _, s := range want {
		e.comment(tok, p.ID, map[string]any{"content": s})
	}

	w := e.do(call{method: http.MethodGet, path: "/posts/" + p.ID + "/comments"})
	wantStatus(t, w, http.StatusOK)
	got := decode[[]domain.Comment](t, w)
	if len(got) != len(want) {
		t.Fatalf("got %d comments; want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Content != want[i] {
			t.Fatalf("comment[%d] = %q; want %q (oldest first)", i, got[i].Content, want[i])
		}
	}

	w = e.do(call{method: http.MethodGet, path: "/posts/unknown/comments"})
	wantStatus(t, w, http.StatusOK)
	if w.Body.String() != "[]" {
		t.Fatalf("unknown post should list [], got %s", w.Body.String())
	}
}
