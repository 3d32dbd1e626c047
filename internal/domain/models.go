// Package domain defines the entities shared by the store, the services and
// the HTTP layer: users, posts, comments and votes. Values of these types
// returned from services are snapshots; mutating them never touches the store.
package domain

import "time"

// User is a registered account. Username is unique (case-sensitive) and never
// changes after registration.
//
// Fields:
//   - ID: UUID assigned at registration.
//   - PasswordHash: bcrypt hash owned by the identity layer, never serialized.
//   - Karma: reserved counter, always 0 today.
//   - IsActive: inactive users cannot act with a bearer token.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Karma        int       `json:"karma"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller as resolved by the identity layer.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// IdentityOf returns the caller identity for u.
func IdentityOf(u User) Identity {
	return Identity{ID: u.ID, Username: u.Username}
}

// Tally holds the vote counters of a post or comment. Score is denormalized
// and must always equal Upvotes - Downvotes.
type Tally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"score"`
}

// Rescore recomputes Score from the counters.
func (t *Tally) Rescore() { t.Score = t.Upvotes - t.Downvotes }

// Post is a link or text submission.
//
// Content and URL are optional and serialize as null when absent.
// CommentCount counts every comment ever created on the post.
type Post struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Content        *string   `json:"content"`
	URL            *string   `json:"url"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
	Tally
	CommentCount int `json:"comment_count"`
}

// Comment belongs to exactly one post. ParentCommentID, when set, points at
// another comment of the same post; replies are not materialized.
type Comment struct {
	ID              string    `json:"id"`
	Content         string    `json:"content"`
	PostID          string    `json:"post_id"`
	AuthorID        string    `json:"author_id"`
	AuthorUsername  string    `json:"author_username"`
	ParentCommentID *string   `json:"parent_comment_id"`
	CreatedAt       time.Time `json:"created_at"`
	Tally
}

// Clone returns a copy of p that shares no pointers with it.
func (p Post) Clone() Post {
	p.Content = cloneString(p.Content)
	p.URL = cloneString(p.URL)
	return p
}

// Clone returns a copy of c that shares no pointers with it.
func (c Comment) Clone() Comment {
	c.ParentCommentID = cloneString(c.ParentCommentID)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// NewPost is the input for creating a post.
type NewPost struct {
	Title   string
	Content *string
	URL     *string
}

// PostPatch carries the optional fields of a post update. Nil fields are left
// untouched.
type PostPatch struct {
	Title   *string
	Content *string
}

// NewComment is the input for creating a comment.
type NewComment struct {
	PostID          string
	Content         string
	ParentCommentID *string
}
