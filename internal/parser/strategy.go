// Package parser holds the document-level extraction helpers shared by the
// pipeline stages: an ordered strategy runner, structured data, link and meta
// tag extraction.
package parser

import "github.com/PuerkitoBio/goquery"

// Strategy is one named way of pulling a value out of a document.
type Strategy[T any] struct {
	Name string
	Try  func(doc *goquery.Document) (T, bool)
}

// Chain is an ordered list of strategies; the first that succeeds wins.
type Chain[T any] []Strategy[T]

// First runs the strategies in order and returns the first hit along with the
// name of the strategy that produced it.
func (c Chain[T]) First(doc *goquery.Document) (T, string, bool) {
	var zero T
	if doc == nil {
		return zero, "", false
	}
	for _, s := range c {
		if v, ok := s.Try(doc); ok {
			return v, s.Name, true
		}
	}
	return zero, "", false
}

// Names lists the strategy names in order.
func (c Chain[T]) Names() []string {
	out := make([]string, len(c))
	for i, s := range c {
		out[i] = s.Name
	}
	return out
}

// FirstText builds a strategy that returns the trimmed text of the first
// element matching any selector, accepted only if keep approves it.
func FirstText(name string, selectors []string, keep func(string) bool) Strategy[string] {
	return Strategy[string]{
		Name: name,
		Try: func(doc *goquery.Document) (string, bool) {
			for _, sel := range selectors {
				var found string
				doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
					text := collapse(s.Text())
					if text != "" && (keep == nil || keep(text)) {
						found = text
						return false
					}
					return true
				})
				if found != "" {
					return found, true
				}
			}
			return "", false
		},
	}
}
