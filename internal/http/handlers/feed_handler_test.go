package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    []string
		notWant []string
	}{
		{"emphasis", "some **bold** text", []string{"<strong>bold</strong>"}, nil},
		{"hard wraps", "line one\nline two", []string{"<br"}, nil},
		{"raw script dropped", "<script>alert(1)</script>\n\nafter", []string{"after"}, []string{"<script", "alert(1)"}},
		{"javascript link stripped", "[x](javascript:alert(1))", nil, []string{"javascript:"}},
		{"external link hardened", "[site](https://example.com)", []string{"nofollow", "noreferrer", `target="_blank"`}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := renderMarkdown(tc.in)
			for _, s := range tc.want {
				if !strings.Contains(got, s) {
					t.Fatalf("renderMarkdown(%q) = %q; missing %q", tc.in, got, s)
				}
			}
			for _, s := range tc.notWant {
				if strings.Contains(got, s) {
					t.Fatalf("renderMarkdown(%q) = %q; must not contain %q", tc.in, got, s)
				}
			}
		})
	}
}

func TestFeeds(t *testing.T) {
	e := newTestEnv(t)
	_, tok := e.login("alice")
	e.createPost(tok, "oldest post", nil)
	link := e.createPost(tok, "link post", map[string]any{"url": "https://example.com/a"})
	text := e.createPost(tok, "text post", map[string]any{"content": "hello *world*"})

	cases := []struct {
		path        string
		contentType string
		marker      string
		entry       string
	}{
		{"/feed.rss", "application/rss+xml; charset=utf-8", "<rss", "<item>"},
		{"/feed.atom", "application/atom+xml; charset=utf-8", "<feed", "<entry>"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := e.do(call{method: http.MethodGet, path: tc.path})
			wantStatus(t, w, http.StatusOK)
			if got := w.Header().Get("Content-Type"); got != tc.contentType {
				t.Fatalf("Content-Type = %q", got)
			}
			body := w.Body.String()
			if !strings.Contains(body, tc.marker) || !strings.Contains(body, "Test Board") {
				t.Fatalf("not a feed document: %s", body)
			}
			// Feed size is 2, so the oldest post is cut.
			if n := strings.Count(body, tc.entry); n != 2 {
				t.Fatalf("entries = %d; want 2", n)
			}
			if strings.Contains(body, "oldest post") {
				t.Fatalf("feed should hold only the newest posts")
			}
			if !strings.Contains(body, *link.URL) {
				t.Fatalf("link post should point at its url")
			}
			if !strings.Contains(body, "https://lb.example/api/v1/posts/"+text.ID) {
				t.Fatalf("text post should fall back to its resource url")
			}
			// Rendered HTML travels escaped inside the XML.
			if !strings.Contains(body, "&lt;em&gt;world&lt;/em&gt;") {
				t.Fatalf("markdown not rendered: %s", body)
			}
			if strings.Index(body, "text post") > strings.Index(body, "link post") {
				t.Fatalf("newest post should come first")
			}

			etag := w.Header().Get("ETag")
			w = e.do(call{method: http.MethodGet, path: tc.path, headers: map[string]string{"If-None-Match": etag}})
			wantStatus(t, w, http.StatusNotModified)
		})
	}

	// The two formats never share validators.
	rss := e.do(call{method: http.MethodGet, path: "/feed.rss"}).Header().Get("ETag")
	atom := e.do(call{method: http.MethodGet, path: "/feed.atom"}).Header().Get("ETag")
	if rss == atom {
		t.Fatalf("rss and atom share ETag %q", rss)
	}
}
