package types

import (
	"net/url"
	"time"
)

// Article is one piece of published content. Identity is its URL.
type Article struct {
	Title       string     `json:"title"                 bson:"title"`
	URL         string     `json:"url"                   bson:"url"`
	PublishDate *time.Time `json:"publishDate,omitempty" bson:"publishDate,omitempty"`
	Section     string     `json:"section,omitempty"     bson:"section,omitempty"`
}

// CanonicalURL strips the fragment so the same page is counted once.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	return u.String()
}

// ArticleSet accumulates articles in insertion order, dropping repeated URLs.
type ArticleSet struct {
	seen  map[string]struct{}
	items []Article
}

// NewArticleSet creates an empty set.
func NewArticleSet() *ArticleSet {
	return &ArticleSet{seen: make(map[string]struct{})}
}

// Add inserts a and reports whether it was new.
func (s *ArticleSet) Add(a Article) bool {
	a.URL = CanonicalURL(a.URL)
	if a.URL == "" {
		return false
	}
	if _, ok := s.seen[a.URL]; ok {
		return false
	}
	s.seen[a.URL] = struct{}{}
	s.items = append(s.items, a)
	return true
}

// Has reports whether rawURL is already in the set.
func (s *ArticleSet) Has(rawURL string) bool {
	_, ok := s.seen[CanonicalURL(rawURL)]
	return ok
}

// Len returns the number of distinct articles.
func (s *ArticleSet) Len() int { return len(s.items) }

// Items returns the articles in insertion order.
func (s *ArticleSet) Items() []Article { return s.items }
