package types

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Response is a fetched page. Body is always UTF-8 for HTML and XML
// content, whatever charset the server declared.
type Response struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	ContentType string
	Request     *Request

	// FinalURL is where redirects ended. Relative links resolve against it.
	FinalURL string

	Elapsed   time.Duration
	FetchedAt time.Time

	doc *goquery.Document
}

// Document parses Body on first use and caches the result.
func (r *Response) Document() (*goquery.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

// PageURL is FinalURL when known, else the requested URL.
func (r *Response) PageURL() string {
	if r.FinalURL != "" {
		return r.FinalURL
	}
	if r.Request != nil {
		return r.Request.URLString()
	}
	return ""
}

// Redirected reports whether the page was served from a different host than
// the one requested, e.g. an outlet moving from .com to .in.
func (r *Response) Redirected() bool {
	if r.Request == nil || r.FinalURL == "" {
		return false
	}
	u, err := url.Parse(r.FinalURL)
	if err != nil {
		return false
	}
	return !strings.EqualFold(strings.TrimPrefix(u.Hostname(), "www."), strings.TrimPrefix(r.Request.Domain(), "www."))
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
