package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-linkboard/internal/domain"
)

func TestCommentService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "thread")

	c, err := f.comments.Create(ctx, domain.NewComment{PostID: p.ID, Content: "first"}, bob)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" || c.PostID != p.ID || c.AuthorID != bob.ID || c.AuthorUsername != "bob" {
		t.Fatalf("unexpected comment: %+v", c)
	}
	if c.Upvotes != 0 || c.Downvotes != 0 || c.Score != 0 || c.ParentCommentID != nil {
		t.Fatalf("unexpected defaults: %+v", c)
	}

	got, err := f.comments.Get(ctx, c.ID)
	if err != nil || got.Content != "first" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := f.comments.Get(ctx, "missing"); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("Get(missing): %v", err)
	}
}

func TestCommentService_Create_IncrementsCommentCountByOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "count me")

	for want := 1; want <= 4; want++ {
		if _, err := f.comments.Create(ctx, domain.NewComment{PostID: p.ID, Content: "c"}, bob); err != nil {
			t.Fatalf("Create #%d: %v", want, err)
		}
		got, _ := f.posts.Get(ctx, p.ID)
		if got.CommentCount != want {
			t.Fatalf("comment_count = %d; want %d", got.CommentCount, want)
		}
	}
}

func TestCommentService_Create_MissingPost(t *testing.T) {
	f := newFixture()
	_, err := f.comments.Create(context.Background(), domain.NewComment{PostID: "nope", Content: "c"}, bob)
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestCommentService_Create_Parent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "a")
	other := f.post(t, "b")

	root, _ := f.comments.Create(ctx, domain.NewComment{PostID: p.ID, Content: "root"}, bob)
	elsewhere, _ := f.comments.Create(ctx, domain.NewComment{PostID: other.ID, Content: "x"}, bob)

	reply, err := f.comments.Create(ctx, domain.NewComment{PostID: p.ID, Content: "reply", ParentCommentID: &root.ID}, alice)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.ParentCommentID == nil || *reply.ParentCommentID != root.ID {
		t.Fatalf("parent not recorded: %+v", reply)
	}

	cases := []struct {
		name   string
		parent string
	}{
		{"unknown parent", "missing"},
		{"parent on another post", elsewhere.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parent := tc.parent
			_, err := f.comments.Create(ctx, domain.NewComment{PostID: p.ID, Content: "c", ParentCommentID: &parent}, alice)
			if !errors.Is(err, ErrParentNotFound) || !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrParentNotFound, got %v", err)
			}
		})
	}

	// Failed creates leave the count untouched.
	got, _ := f.posts.Get(ctx, p.ID)
	if got.CommentCount != 2 {
		t.Fatalf("comment_count = %d; want 2", got.CommentCount)
	}
}

func TestCommentService_ListByPost(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.post(t, "list")

	for _, body := range []string{"one", "two", "three"} {
		_, _ = f.comments.Create(ctx, domain.NewComment{PostID: p.ID, Content: body}, bob)
	}
	cs, err := f.comments.ListByPost(ctx, p.ID)
	if err != nil || len(cs) != 3 {
		t.Fatalf("ListByPost = %d, %v", len(cs), err)
	}
	if cs[0].Content != "one" || cs[2].Content != "three" {
		t.Fatalf("not oldest first: %+v", cs)
	}

	none, err := f.comments.ListByPost(ctx, "unknown-post")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("unknown post should give empty list, got %#v, %v", none, err)
	}
}
