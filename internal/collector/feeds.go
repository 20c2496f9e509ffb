package collector

import (
	"context"

	"github.com/mmcdole/gofeed"

	"github.com/AnshulAlgoS/AtenFlux/internal/parser"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/urlpat"
)

// fromFeeds reads RSS/Atom feeds advertised on the homepage plus the
// conventional feed locations.
func (c *Collector) fromFeeds(ctx context.Context, r *run) {
	var feeds []string
	if r.homepage != nil {
		feeds = append(feeds, parser.FeedLinks(r.homepage, r.homeURL)...)
	}
	for _, p := range c.cfg.FeedPaths {
		feeds = append(feeds, r.site.Resolve(p))
	}

	fp := gofeed.NewParser()
	seen := make(map[string]bool)
	for _, feedURL := range feeds {
		if seen[feedURL] || ctx.Err() != nil {
			continue
		}
		seen[feedURL] = true

		resp, ok := c.get(ctx, feedURL)
		if !ok {
			continue
		}
		feed, err := fp.ParseString(string(resp.Body))
		if err != nil {
			c.logger.Debug("not a feed", "url", feedURL, "error", err)
			continue
		}
		for _, item := range feed.Items {
			if item.Link == "" || !urlpat.SameSite(item.Link, r.site.BaseURL) {
				continue
			}
			a := types.Article{Title: item.Title, URL: item.Link, PublishDate: item.PublishedParsed}
			if len(item.Categories) > 0 {
				a.Section = item.Categories[0]
			}
			if r.add(a) {
				return
			}
		}
	}
}
