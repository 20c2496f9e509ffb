// Package discovery finds the journalists who write for a news site.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AnshulAlgoS/AtenFlux/internal/byline"
	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// ArticleSource supplies candidate articles for byline extraction.
type ArticleSource interface {
	Collect(ctx context.Context, site *types.ResolvedSite, target int) []types.Article
}

// Discoverer locates author candidates through staff directories and article
// bylines.
type Discoverer struct {
	fetcher      fetcher.Fetcher
	articles     ArticleSource
	bylines      *byline.Extractor
	cfg          config.DiscoveryConfig
	timeout      time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
}

// New creates a Discoverer.
func New(f fetcher.Fetcher, articles ArticleSource, cfg *config.Config, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		fetcher:      f,
		articles:     articles,
		bylines:      byline.NewExtractor(logger),
		cfg:          cfg.Discovery,
		timeout:      cfg.Fetcher.RequestTimeout,
		probeTimeout: cfg.Fetcher.ProbeTimeout,
		logger:       logger.With("component", "discovery"),
	}
}

// Discover returns at most quota candidates deduplicated by normalized name.
// Directory candidates are kept ahead of article-derived ones. It fails with
// types.ErrDiscovery when nothing is found.
func (d *Discoverer) Discover(ctx context.Context, site *types.ResolvedSite, outlet string, quota int) ([]types.AuthorCandidate, error) {
	if quota < 1 {
		quota = 1
	}
	p := newPool()

	if page, n := d.fromDirectory(ctx, site, p, quota); page != "" {
		d.logger.Info("directory found", "site", site.Host, "page", page, "candidates", n)
	}

	if p.Len() < quota && ctx.Err() == nil {
		limit := int(math.Ceil(float64(quota) * d.cfg.BufferFactor))
		d.fromArticles(ctx, site, p, limit)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates := trim(p.Items(), quota)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w on %s", types.ErrDiscovery, site.BaseURL)
	}
	d.logger.Info("authors discovered", "outlet", outlet, "site", site.Host, "count", len(candidates), "quota", quota)
	return candidates, nil
}

// found is one worker result: an author read off an article.
type found struct {
	author  byline.Author
	article types.Article
}

// fromArticles extracts bylines from collected articles with bounded
// parallelism. Results are folded into the pool by the calling goroutine only;
// once limit distinct authors are known the remaining fetches are cancelled.
func (d *Discoverer) fromArticles(ctx context.Context, site *types.ResolvedSite, p *pool, limit int) {
	if p.Len() >= limit {
		return
	}
	articles := d.articles.Collect(ctx, site, d.cfg.MaxArticles)
	if len(articles) > d.cfg.MaxArticles {
		articles = articles[:d.cfg.MaxArticles]
	}
	if len(articles) == 0 {
		d.logger.Warn("no articles to scan", "site", site.Host)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.ArticleConcurrency)

	results := make(chan found)
	go func() {
		defer close(results)
		for _, a := range articles {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				author, ok := d.authorOf(gctx, a)
				if !ok {
					return nil
				}
				select {
				case results <- found{author: author, article: a}:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	scanned := 0
	for r := range results {
		scanned++
		if p.Len() >= limit && !p.Has(r.author.Name) {
			continue
		}
		p.Add(types.AuthorCandidate{
			Name:       r.author.Name,
			ProfileURL: r.author.ProfileURL,
			Source:     r.author.Source,
		}, r.article)
		if p.Len() >= limit {
			cancel()
		}
	}
	d.logger.Debug("bylines scanned", "site", site.Host, "articles", len(articles), "matched", scanned, "authors", p.Len())
}

func (d *Discoverer) authorOf(ctx context.Context, a types.Article) (byline.Author, bool) {
	resp, err := fetcher.Get(ctx, d.fetcher, a.URL, d.timeout)
	if err != nil {
		d.logger.Debug("article fetch failed", "url", a.URL, "error", err)
		return byline.Author{}, false
	}
	doc, err := resp.Document()
	if err != nil {
		return byline.Author{}, false
	}
	return d.bylines.Extract(doc, resp.PageURL())
}

// trim keeps directory candidates first and cuts to quota.
func trim(candidates []types.AuthorCandidate, quota int) []types.AuthorCandidate {
	out := append([]types.AuthorCandidate(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FromDirectory() && !out[j].FromDirectory()
	})
	if len(out) > quota {
		out = out[:quota]
	}
	return out
}
