package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request is one page fetch issued by a pipeline stage.
type Request struct {
	URL     *url.URL
	Method  string
	Headers http.Header

	// Timeout bounds this fetch only. Zero means the fetcher default.
	Timeout time.Duration

	// Backend pins the auto fetcher to "http" or "browser".
	Backend string
}

// NewRequest creates a GET request for an absolute http(s) URL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return &Request{URL: u, Method: http.MethodGet, Headers: make(http.Header)}, nil
}

// WithTimeout sets the per-fetch timeout and returns r.
func (r *Request) WithTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// URLString returns the request URL, or "" when unset.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the request host without port.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
