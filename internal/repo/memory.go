// Package repo implements the data layer. This file holds Memory, the
// in-process entity store for users, posts, comments and votes. It is the
// single source of truth for those entities; nothing is persisted.
//
// Concurrency:
//   - One RWMutex guards every map. View runs under the read lock, Update under
//     the write lock, so a multi-step sequence inside one Update callback (for
//     example read vote, compare, mutate counters) is atomic.
//   - *Tx values are only valid inside the callback that received them.
//
// Snapshots:
//   - The convenience getters on Memory return copies. Pointers obtained from a
//     Tx refer to live records and must not escape the callback.
package repo

import (
	"errors"
	"sort"
	"sync"

	"github.com/tbourn/go-linkboard/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate indicates that a record with the same unique key already exists.
var ErrDuplicate = errors.New("duplicate")

// Memory is the in-memory entity store. The zero value is not usable; call
// NewMemory.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*domain.User // by username
	posts    map[string]*domain.Post
	comments map[string]*domain.Comment
	votes    map[domain.VoteKey]*domain.Vote

	// seq records insertion order of posts and comments; it breaks ties
	// between equal CreatedAt values so ordering stays deterministic.
	seq     map[string]uint64
	nextSeq uint64
	rev     uint64
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*domain.User),
		posts:    make(map[string]*domain.Post),
		comments: make(map[string]*domain.Comment),
		votes:    make(map[domain.VoteKey]*domain.Vote),
		seq:      make(map[string]uint64),
	}
}

// Tx exposes unlocked store primitives to View and Update callbacks.
type Tx struct {
	m        *Memory
	writable bool
}

// View runs fn with a read-only transaction under the read lock.
func (m *Memory) View(fn func(tx *Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&Tx{m: m})
}

// Update runs fn under the write lock. The store revision is bumped even
// when fn fails, since fn may have mutated records before returning.
func (m *Memory) Update(fn func(tx *Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rev++
	return fn(&Tx{m: m, writable: true})
}

// Revision returns a counter that changes after every Update. It is suitable
// for weak cache validators.
func (m *Memory) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rev
}

func (tx *Tx) mustWrite() {
	if !tx.writable {
		panic("repo: write inside View")
	}
}

// ---- users ----

// UserByUsername returns the live user record or nil.
func (tx *Tx) UserByUsername(username string) *domain.User {
	return tx.m.users[username]
}

// UserByID scans users for id. Users are keyed by username, so this is linear.
func (tx *Tx) UserByID(id string) *domain.User {
	for _, u := range tx.m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// InsertUser stores u. The username must not already exist (exact match).
func (tx *Tx) InsertUser(u *domain.User) error {
	tx.mustWrite()
	if _, ok := tx.m.users[u.Username]; ok {
		return ErrDuplicate
	}
	tx.m.users[u.Username] = u
	return nil
}

// ---- posts ----

// Post returns the live post record or nil.
func (tx *Tx) Post(id string) *domain.Post {
	return tx.m.posts[id]
}

// InsertPost stores p under p.ID.
func (tx *Tx) InsertPost(p *domain.Post) {
	tx.mustWrite()
	tx.m.posts[p.ID] = p
	tx.m.stamp(p.ID)
}

// Posts returns live posts ordered newest first, sliced to [skip, skip+limit).
// A negative skip counts as 0; a non-positive limit or a skip past the end
// yields an empty slice.
func (tx *Tx) Posts(skip, limit int) []*domain.Post {
	all := make([]*domain.Post, 0, len(tx.m.posts))
	for _, p := range tx.m.posts {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return tx.m.seq[a.ID] > tx.m.seq[b.ID]
	})

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || skip >= len(all) {
		return []*domain.Post{}
	}
	end := skip + limit
	if end > len(all) || end < skip { // end < skip on overflow
		end = len(all)
	}
	return all[skip:end]
}

// DeletePost removes the post, every comment whose PostID matches, and every
// vote targeting any of them. It reports whether the post existed.
func (tx *Tx) DeletePost(id string) bool {
	tx.mustWrite()
	if _, ok := tx.m.posts[id]; !ok {
		return false
	}
	delete(tx.m.posts, id)
	delete(tx.m.seq, id)

	gone := map[domain.VoteTarget]struct{}{domain.PostTarget(id): {}}
	for cid, c := range tx.m.comments {
		if c.PostID == id {
			delete(tx.m.comments, cid)
			delete(tx.m.seq, cid)
			gone[domain.CommentTarget(cid)] = struct{}{}
		}
	}
	for k := range tx.m.votes {
		if _, ok := gone[k.Target]; ok {
			delete(tx.m.votes, k)
		}
	}
	return true
}

// ---- comments ----

// Comment returns the live comment record or nil.
func (tx *Tx) Comment(id string) *domain.Comment {
	return tx.m.comments[id]
}

// InsertComment stores c under c.ID. It does not touch the owning post.
func (tx *Tx) InsertComment(c *domain.Comment) {
	tx.mustWrite()
	tx.m.comments[c.ID] = c
	tx.m.stamp(c.ID)
}

// CommentsByPost returns live comments of postID, oldest first.
func (tx *Tx) CommentsByPost(postID string) []*domain.Comment {
	out := []*domain.Comment{}
	for _, c := range tx.m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return tx.m.seq[a.ID] < tx.m.seq[b.ID]
	})
	return out
}

// ---- votes ----

// Vote returns the live vote for key or nil.
func (tx *Tx) Vote(key domain.VoteKey) *domain.Vote {
	return tx.m.votes[key]
}

// PutVote stores v under v.Key, replacing any previous record.
func (tx *Tx) PutVote(v *domain.Vote) {
	tx.mustWrite()
	tx.m.votes[v.Key] = v
}

// VoteCount returns the number of stored votes.
func (tx *Tx) VoteCount() int { return len(tx.m.votes) }

func (m *Memory) stamp(id string) {
	m.nextSeq++
	m.seq[id] = m.nextSeq
}

// ---- locked convenience API (returns snapshots) ----

// GetUserByUsername returns a copy of the user with that username.
func (m *Memory) GetUserByUsername(username string) (domain.User, bool) {
	var out domain.User
	var found bool
	_ = m.View(func(tx *Tx) error {
		if u := tx.UserByUsername(username); u != nil {
			out, found = *u, true
		}
		return nil
	})
	return out, found
}

// GetUserByID returns a copy of the user with that id.
func (m *Memory) GetUserByID(id string) (domain.User, bool) {
	var out domain.User
	var found bool
	_ = m.View(func(tx *Tx) error {
		if u := tx.UserByID(id); u != nil {
			out, found = *u, true
		}
		return nil
	})
	return out, found
}

// InsertUser stores a copy of u; ErrDuplicate when the username is taken.
func (m *Memory) InsertUser(u domain.User) error {
	return m.Update(func(tx *Tx) error {
		return tx.InsertUser(&u)
	})
}

// GetPost returns a copy of the post.
func (m *Memory) GetPost(id string) (domain.Post, bool) {
	var out domain.Post
	var found bool
	_ = m.View(func(tx *Tx) error {
		if p := tx.Post(id); p != nil {
			out, found = p.Clone(), true
		}
		return nil
	})
	return out, found
}

// ListPosts returns copies of posts, newest first, sliced to [skip, skip+limit).
func (m *Memory) ListPosts(skip, limit int) []domain.Post {
	var out []domain.Post
	_ = m.View(func(tx *Tx) error {
		live := tx.Posts(skip, limit)
		out = make([]domain.Post, len(live))
		for i, p := range live {
			out[i] = p.Clone()
		}
		return nil
	})
	return out
}

// GetCommentsByPost returns copies of the comments of postID, oldest first.
func (m *Memory) GetCommentsByPost(postID string) []domain.Comment {
	var out []domain.Comment
	_ = m.View(func(tx *Tx) error {
		live := tx.CommentsByPost(postID)
		out = make([]domain.Comment, len(live))
		for i, c := range live {
			out[i] = c.Clone()
		}
		return nil
	})
	return out
}

// DeletePost removes the post with its comments and votes and reports whether
// it existed.
func (m *Memory) DeletePost(id string) bool {
	var existed bool
	_ = m.Update(func(tx *Tx) error {
		existed = tx.DeletePost(id)
		return nil
	})
	return existed
}
