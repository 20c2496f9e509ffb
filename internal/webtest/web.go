// Package webtest provides an in-memory web for exercising pipeline stages
// without network access.
package webtest

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// Page is a canned response. A page with Location set is a redirect and is
// followed, relative to the URL that served it.
type Page struct {
	Status      int
	Body        string
	ContentType string
	Location    string
}

const maxRedirects = 10

// RouteFunc answers requests whose URL starts with a registered prefix.
type RouteFunc func(u *url.URL) Page

// Web is a Fetcher that serves canned pages by URL. Unknown URLs get a 404.
type Web struct {
	mu     sync.Mutex
	pages  map[string]Page
	errs   map[string]error
	routes map[string]RouteFunc
	hits   map[string]int
	delay  time.Duration
}

// New creates an empty web.
func New() *Web {
	return &Web{
		pages:  make(map[string]Page),
		errs:   make(map[string]error),
		routes: make(map[string]RouteFunc),
		hits:   make(map[string]int),
	}
}

// Key normalizes a URL for lookup: fragment dropped, host lower-cased and a
// trailing slash removed from non-root paths.
func Key(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String()
}

// HTML registers a 200 text/html page.
func (w *Web) HTML(rawURL, body string) *Web {
	return w.Set(rawURL, Page{Status: http.StatusOK, Body: body, ContentType: "text/html"})
}

// XML registers a 200 application/xml page.
func (w *Web) XML(rawURL, body string) *Web {
	return w.Set(rawURL, Page{Status: http.StatusOK, Body: body, ContentType: "application/xml"})
}

// Set registers an arbitrary page.
func (w *Web) Set(rawURL string, p Page) *Web {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages[Key(rawURL)] = p
	return w
}

// Redirect makes fetches of from end up at to.
func (w *Web) Redirect(from, to string) *Web {
	return w.Set(from, Page{Status: http.StatusMovedPermanently, Location: to})
}

// Fail makes every fetch of rawURL return err.
func (w *Web) Fail(rawURL string, err error) *Web {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs[Key(rawURL)] = err
	return w
}

// Route registers fn for every URL beginning with prefix.
func (w *Web) Route(prefix string, fn RouteFunc) *Web {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.routes[prefix] = fn
	return w
}

// Delay makes every fetch wait d or until the context is done.
func (w *Web) Delay(d time.Duration) *Web {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delay = d
	return w
}

// Fetch implements fetcher.Fetcher.
func (w *Web) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	raw := req.URLString()
	current := req.URL

	var (
		page    Page
		ok      bool
		ferr    error
		failing bool
		delay   time.Duration
	)
	w.mu.Lock()
	delay = w.delay
	for hop := 0; ; hop++ {
		key := Key(current.String())
		w.hits[key]++
		if ferr, failing = w.errs[key]; failing {
			break
		}
		if page, ok = w.pages[key]; !ok {
			page, ok = w.route(current)
		}
		if !ok || page.Location == "" || hop == maxRedirects {
			break
		}
		next, err := current.Parse(page.Location)
		if err != nil {
			break
		}
		current = next
	}
	w.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &types.FetchError{URL: raw, Err: err}
	}
	if failing {
		return nil, &types.FetchError{URL: raw, Err: ferr}
	}
	if !ok {
		page = Page{Status: http.StatusNotFound, Body: "not found", ContentType: "text/plain"}
	}

	headers := make(http.Header)
	headers.Set("Content-Type", page.ContentType)
	return &types.Response{
		StatusCode:  page.Status,
		Headers:     headers,
		Body:        []byte(page.Body),
		Request:     req,
		ContentType: page.ContentType,
		FinalURL:    current.String(),
		FetchedAt:   time.Now(),
	}, nil
}

func (w *Web) route(u *url.URL) (Page, bool) {
	raw := u.String()
	var best string
	for prefix := range w.routes {
		if strings.HasPrefix(raw, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return Page{}, false
	}
	return w.routes[best](u), true
}

// Hits returns how many times rawURL was fetched.
func (w *Web) Hits(rawURL string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hits[Key(rawURL)]
}

// Requested returns every URL fetched so far, sorted.
func (w *Web) Requested() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.hits))
	for k := range w.hits {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close implements fetcher.Fetcher.
func (w *Web) Close() error { return nil }

// Type implements fetcher.Fetcher.
func (w *Web) Type() string { return "webtest" }
