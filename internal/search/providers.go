package search

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
)

const (
	duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"
	bingEndpoint       = "https://www.bing.com/search"
	googleEndpoint     = "https://www.google.com/search"
)

type base struct {
	fetcher  fetcher.Fetcher
	endpoint string
	timeout  time.Duration
}

func (b base) page(ctx context.Context, params url.Values) (*goquery.Document, error) {
	resp, err := fetcher.Get(ctx, b.fetcher, b.endpoint+"?"+params.Encode(), b.timeout)
	if err != nil {
		return nil, err
	}
	return resp.Document()
}

// collect walks anchors matched by selector, decoding each href with unwrap.
func collect(doc *goquery.Document, selector string, limit int, unwrap func(string) string, title func(*goquery.Selection) string) []Result {
	seen := make(map[string]bool)
	var results []Result
	doc.Find(selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := unwrap(strings.TrimSpace(a.AttrOr("href", "")))
		u, err := url.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true
		results = append(results, Result{URL: href, Title: strings.Join(strings.Fields(title(a)), " "), Rank: len(results) + 1})
		return len(results) < limit
	})
	return results
}

func anchorText(a *goquery.Selection) string { return a.Text() }

// DuckDuckGo scrapes the JavaScript-free DuckDuckGo result page.
type DuckDuckGo struct{ base }

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	doc, err := d.page(ctx, url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	return collect(doc, "a.result__a", limit, unwrapDuckDuckGo, anchorText), nil
}

// unwrapDuckDuckGo decodes redirect links of the form //duckduckgo.com/l/?uddg=<url>.
func unwrapDuckDuckGo(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// Bing scrapes Bing web results.
type Bing struct{ base }

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	doc, err := b.page(ctx, url.Values{"q": {query}, "count": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}
	return collect(doc, "li.b_algo h2 a", limit, func(h string) string { return h }, anchorText), nil
}

// Google scrapes the basic Google result page.
type Google struct{ base }

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	doc, err := g.page(ctx, url.Values{"q": {query}, "num": {strconv.Itoa(limit)}, "hl": {"en"}})
	if err != nil {
		return nil, err
	}
	title := func(a *goquery.Selection) string {
		if h := a.Find("h3"); h.Length() > 0 {
			return h.First().Text()
		}
		return a.Text()
	}
	results := collect(doc, `a[href^="/url?"]`, limit, unwrapGoogle, title)
	if len(results) == 0 {
		results = collect(doc, "div.g a:has(h3)", limit, func(h string) string { return h }, title)
	}
	return results, nil
}

// unwrapGoogle decodes /url?q=<url>&sa=... redirect links.
func unwrapGoogle(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	if q := u.Query().Get("url"); q != "" {
		return q
	}
	return href
}
