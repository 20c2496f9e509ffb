// Package profile turns an author candidate into an AuthorProfile by reading
// the author's profile page.
package profile

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/parser"
	"github.com/AnshulAlgoS/AtenFlux/internal/search"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/urlpat"
)

// Extractor reads profile pages.
type Extractor struct {
	fetcher fetcher.Fetcher
	search  *search.Client
	cfg     config.ProfileConfig
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an Extractor. client may be nil to disable the search fallback.
func New(f fetcher.Fetcher, client *search.Client, cfg *config.Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		fetcher: f,
		search:  client,
		cfg:     cfg.Profile,
		timeout: cfg.Fetcher.RequestTimeout,
		logger:  logger.With("component", "profile"),
	}
}

// Extract builds the profile for c. It never fails: when the profile page
// cannot be loaded or relocated, a stub carrying only the candidate's seed
// articles and the default role is returned.
func (e *Extractor) Extract(ctx context.Context, c types.AuthorCandidate, site *types.ResolvedSite) *types.AuthorProfile {
	p := &types.AuthorProfile{
		Name:       c.Name,
		ProfileURL: c.ProfileURL,
		Source:     c.Source,
		Role:       e.cfg.DefaultRole,
	}

	doc, pageURL, ok := e.loadProfile(ctx, c.ProfileURL)
	if ok && pageURL != c.ProfileURL && urlpat.IsAuthorProfile(pageURL) {
		p.ProfileURL = pageURL
	}
	if !ok {
		if moved, found := e.relocate(ctx, site, c.Name); found && moved != c.ProfileURL {
			e.logger.Debug("profile relocated", "name", c.Name, "from", c.ProfileURL, "to", moved)
			if doc, pageURL, ok = e.loadProfile(ctx, moved); ok {
				p.ProfileURL = moved
			}
		}
	}
	if !ok {
		e.logger.Warn("profile unavailable, using stub", "name", c.Name, "url", c.ProfileURL)
		p.SetArticles(e.merge(nil, c.SeedArticles))
		return p
	}

	e.readFields(doc, pageURL, p)

	articles := e.pageArticles(doc, pageURL)
	if len(articles) == 0 && len(c.SeedArticles) == 0 {
		articles = e.searchArticles(ctx, c.Name, site)
	}
	p.SetArticles(e.merge(articles, c.SeedArticles))

	e.logger.Debug("profile extracted", "name", p.Name, "articles", p.TotalArticles, "social", p.SocialLinks.Count())
	return p
}

func (e *Extractor) load(ctx context.Context, rawURL string) (*goquery.Document, string, bool) {
	if rawURL == "" {
		return nil, "", false
	}
	resp, err := fetcher.Get(ctx, e.fetcher, rawURL, e.timeout)
	if err != nil {
		e.logger.Debug("profile fetch failed", "url", rawURL, "error", err)
		return nil, "", false
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, "", false
	}
	return doc, resp.PageURL(), true
}

// loadProfile is load for a profile page. A redirect that lands on the site
// root or on a non-profile path means the CMS does not know the author, and
// the page is rejected.
func (e *Extractor) loadProfile(ctx context.Context, rawURL string) (*goquery.Document, string, bool) {
	doc, pageURL, ok := e.load(ctx, rawURL)
	if !ok {
		return nil, "", false
	}
	if !servedAsProfile(rawURL, pageURL) {
		e.logger.Debug("profile redirected away", "url", rawURL, "final_url", pageURL)
		return nil, "", false
	}
	return doc, pageURL, true
}

func servedAsProfile(requested, final string) bool {
	fu, err := url.Parse(final)
	if err != nil || strings.Trim(fu.Path, "/") == "" {
		return false
	}
	ru, err := url.Parse(requested)
	if err == nil && strings.EqualFold(ru.Hostname(), fu.Hostname()) &&
		strings.TrimSuffix(ru.Path, "/") == strings.TrimSuffix(fu.Path, "/") {
		return true
	}
	return urlpat.IsAuthorProfile(final)
}

// relocate looks for an anchor on the homepage whose text is exactly the
// author's name, ignoring case, spacing and diacritics.
func (e *Extractor) relocate(ctx context.Context, site *types.ResolvedSite, name string) (string, bool) {
	if site == nil {
		return "", false
	}
	doc, pageURL, ok := e.load(ctx, site.BaseURL)
	if !ok {
		return "", false
	}
	want := names.Key(name)
	for _, l := range parser.ExtractLinks(doc.Selection, pageURL, parser.LinkOptions{SameHost: true}) {
		if names.Key(names.CleanByline(l.Text)) == want {
			return l.URL, true
		}
	}
	return "", false
}

// merge combines page articles with seed articles, deduplicated by URL and
// capped at MaxArticles.
func (e *Extractor) merge(page, seeds []types.Article) []types.Article {
	set := types.NewArticleSet()
	for _, list := range [][]types.Article{page, seeds} {
		for _, a := range list {
			if set.Len() >= e.cfg.MaxArticles {
				break
			}
			set.Add(a)
		}
	}
	out := set.Items()
	if out == nil {
		out = []types.Article{}
	}
	return out
}
