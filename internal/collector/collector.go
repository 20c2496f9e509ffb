// Package collector gathers candidate article URLs for a news site.
package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
	"github.com/AnshulAlgoS/AtenFlux/internal/search"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// Collector runs the article strategies in order until the target is met.
type Collector struct {
	fetcher fetcher.Fetcher
	search  *search.Client
	cfg     config.CollectorConfig
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Collector. client may be nil to disable the search fallback.
func New(f fetcher.Fetcher, client *search.Client, cfg *config.Config, logger *slog.Logger) *Collector {
	return &Collector{
		fetcher: f,
		search:  client,
		cfg:     cfg.Collector,
		timeout: cfg.Fetcher.RequestTimeout,
		logger:  logger.With("component", "collector"),
	}
}

// run is the state shared by the strategies of one Collect call.
type run struct {
	site     *types.ResolvedSite
	target   int
	set      *types.ArticleSet
	homepage *goquery.Document
	homeURL  string
}

func (r *run) full() bool { return r.set.Len() >= r.target }

type strategy struct {
	name string
	fn   func(ctx context.Context, r *run)
}

// Collect returns up to target distinct articles for site. It never fails;
// fetch errors only end the strategy that hit them.
func (c *Collector) Collect(ctx context.Context, site *types.ResolvedSite, target int) []types.Article {
	if target <= 0 || site == nil {
		return nil
	}
	r := &run{site: site, target: target, set: types.NewArticleSet(), homeURL: site.BaseURL}
	if resp, err := fetcher.Get(ctx, c.fetcher, site.BaseURL, c.timeout); err == nil {
		r.homepage, _ = resp.Document()
		r.homeURL = resp.PageURL()
		if resp.Redirected() {
			if moved, err := site.Rebase(r.homeURL); err == nil {
				c.logger.Info("homepage moved host", "from", site.BaseURL, "to", moved.BaseURL)
				r.site = moved
			}
		}
	} else {
		c.logger.Debug("homepage unavailable", "url", site.BaseURL, "error", err)
	}

	strategies := []strategy{
		{"feeds", c.fromFeeds},
		{"sitemaps", c.fromSitemaps},
		{"homepage", c.fromHomepage},
		{"sections", c.fromSections},
		{"search", c.fromSearch},
	}
	for _, s := range strategies {
		if r.full() || ctx.Err() != nil {
			break
		}
		before := r.set.Len()
		s.fn(ctx, r)
		c.logger.Debug("strategy done", "site", r.site.Host, "strategy", s.name, "added", r.set.Len()-before)
	}

	items := r.set.Items()
	if len(items) > target {
		items = items[:target]
	}
	c.logger.Info("articles collected", "site", r.site.Host, "count", len(items), "target", target)
	return items
}

// add inserts a and reports whether the target is now met.
func (r *run) add(a types.Article) bool {
	r.set.Add(a)
	return r.full()
}

func (c *Collector) get(ctx context.Context, rawURL string) (*types.Response, bool) {
	resp, err := fetcher.Get(ctx, c.fetcher, rawURL, c.timeout)
	if err != nil {
		c.logger.Debug("fetch failed", "url", rawURL, "error", err)
		return nil, false
	}
	return resp, true
}
