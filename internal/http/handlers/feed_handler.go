// Feed HTTP handlers.
//
//   - GET /feed.rss
//   - GET /feed.atom
//
// Both feeds list the newest posts. Item bodies are the post's Markdown
// rendered to HTML and sanitized with the UGC policy.
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/tbourn/go-linkboard/internal/domain"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	ugcPolicy = newFeedPolicy()
)

func newFeedPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// renderMarkdown converts a post body to sanitized HTML. Goldmark already
// drops raw HTML; the sanitizer also strips unsafe URLs from links.
func renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return ugcPolicy.Sanitize(src)
	}
	return string(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

// postLink is the post's own URL for link posts and its API resource otherwise.
func (h *Handlers) postLink(p domain.Post) string {
	if p.URL != nil && *p.URL != "" {
		return *p.URL
	}
	return h.feed.BaseURL + "/posts/" + p.ID
}

func (h *Handlers) buildFeed(posts []domain.Post) *feeds.Feed {
	f := &feeds.Feed{
		Title:       h.feed.Title,
		Link:        &feeds.Link{Href: h.feed.BaseURL + "/posts"},
		Description: "Newest posts on " + h.feed.Title,
		Id:          h.feed.BaseURL + "/feed.atom",
		Created:     time.Unix(0, 0).UTC(),
	}
	if len(posts) > 0 {
		f.Created = posts[0].CreatedAt
		f.Updated = posts[0].CreatedAt
	}
	for _, p := range posts {
		item := &feeds.Item{
			Id:      h.feed.BaseURL + "/posts/" + p.ID,
			Title:   p.Title,
			Link:    &feeds.Link{Href: h.postLink(p)},
			Author:  &feeds.Author{Name: p.AuthorUsername},
			Created: p.CreatedAt,
		}
		if p.Content != nil {
			item.Description = renderMarkdown(*p.Content)
		}
		f.Items = append(f.Items, item)
	}
	return f
}

// serveFeed shares caching and rendering between the two formats.
func (h *Handlers) serveFeed(c *gin.Context, format, contentType string, render func(*feeds.Feed) (string, error)) {
	etag := fmt.Sprintf(`W/"feed:%s:%d"`, format, h.posts.Revision())
	c.Header("ETag", etag)
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		notModified(c)
		return
	}

	posts, err := h.posts.List(c.Request.Context(), 0, h.feed.Size)
	if err != nil {
		failErr(c, err)
		return
	}
	body, err := render(h.buildFeed(posts))
	if err != nil {
		failErr(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, []byte(body))
}

// RSSFeed godoc
// @ID          rssFeed
// @Summary     Newest posts as RSS 2.0
// @Tags        Feeds
// @Produce     xml
// @Success     200  {string}  string  "RSS document"
// @Success     304  {string}  string  "Not Modified"
// @Router      /feed.rss [get]
func (h *Handlers) RSSFeed(c *gin.Context) {
	h.serveFeed(c, "rss", "application/rss+xml; charset=utf-8", (*feeds.Feed).ToRss)
}

// AtomFeed godoc
// @ID          atomFeed
// @Summary     Newest posts as Atom
// @Tags        Feeds
// @Produce     xml
// @Success     200  {string}  string  "Atom document"
// @Success     304  {string}  string  "Not Modified"
// @Router      /feed.atom [get]
func (h *Handlers) AtomFeed(c *gin.Context) {
	h.serveFeed(c, "atom", "application/atom+xml; charset=utf-8", (*feeds.Feed).ToAtom)
}
