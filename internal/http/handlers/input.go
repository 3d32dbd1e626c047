package handlers

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	maxTitleRunes   = 300
	maxContentRunes = 40000
	maxURLLen       = 2048
)

var (
	errTitleLength   = errors.New("title must be 1-300 characters")
	errContentLength = errors.New("content must be at most 40000 characters")
	errContentEmpty  = errors.New("content must not be empty")
	errBadURL        = errors.New("url must be an absolute http(s) URL")
)

// normalizeTitle applies NFC, trims, and collapses runs of whitespace to a
// single space, so visually identical titles compare (and slug) equally.
func normalizeTitle(s string) (string, error) {
	t := strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	if n := utf8.RuneCountInString(t); n == 0 || n > maxTitleRunes {
		return "", errTitleLength
	}
	return t, nil
}

// normalizeText converts line endings to \n and applies NFC. Leading and
// trailing whitespace is dropped; inner layout is kept since bodies are
// Markdown.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(norm.NFC.String(s))
}

// normalizeBody handles the optional post body: nil stays nil, blank
// becomes nil.
func normalizeBody(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	s := normalizeText(*p)
	if s == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(s) > maxContentRunes {
		return nil, errContentLength
	}
	return &s, nil
}

// normalizeComment requires non-blank content.
func normalizeComment(s string) (string, error) {
	s = normalizeText(s)
	switch {
	case s == "":
		return "", errContentEmpty
	case utf8.RuneCountInString(s) > maxContentRunes:
		return "", errContentLength
	}
	return s, nil
}

// normalizeURL accepts absolute http and https URLs only. Blank means no URL.
func normalizeURL(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*p)
	if raw == "" {
		return nil, nil
	}
	if len(raw) > maxURLLen {
		return nil, errBadURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errBadURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, errBadURL
	}
	s := u.String()
	return &s, nil
}
