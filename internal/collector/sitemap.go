package collector

import (
	"context"
	"encoding/xml"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/urlpat"
)

// SitemapURL is a <url> entry, including the Google News extension.
type SitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
	News    struct {
		Title           string `xml:"title"`
		PublicationDate string `xml:"publication_date"`
	} `xml:"news"`
}

// Sitemap is either a <urlset> or a <sitemapindex>.
type Sitemap struct {
	URLs     []SitemapURL `xml:"url"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// ParseSitemap decodes a sitemap or sitemap index.
func ParseSitemap(body []byte) (*Sitemap, error) {
	var sm Sitemap
	if err := xml.Unmarshal(body, &sm); err != nil {
		return nil, err
	}
	return &sm, nil
}

// fromSitemaps probes the conventional sitemap paths and those listed in
// robots.txt. Sitemap indexes are followed one level, capped at MaxSitemaps.
func (c *Collector) fromSitemaps(ctx context.Context, r *run) {
	candidates := c.robotsSitemaps(ctx, r)
	for _, p := range c.cfg.SitemapPaths {
		candidates = append(candidates, r.site.Resolve(p))
	}

	seen := make(map[string]bool)
	for _, smURL := range candidates {
		if seen[smURL] || ctx.Err() != nil {
			continue
		}
		seen[smURL] = true

		sm, ok := c.fetchSitemap(ctx, smURL)
		if !ok {
			continue
		}
		if c.addSitemapURLs(r, sm.URLs) {
			return
		}

		var subs []string
		for _, s := range sm.Sitemaps {
			subs = append(subs, strings.TrimSpace(s.Loc))
		}
		for _, sub := range prioritizeSitemaps(subs, c.cfg.MaxSitemaps) {
			if seen[sub] || ctx.Err() != nil {
				continue
			}
			seen[sub] = true
			if child, ok := c.fetchSitemap(ctx, sub); ok && c.addSitemapURLs(r, child.URLs) {
				return
			}
		}
	}
}

func (c *Collector) fetchSitemap(ctx context.Context, smURL string) (*Sitemap, bool) {
	resp, ok := c.get(ctx, smURL)
	if !ok {
		return nil, false
	}
	sm, err := ParseSitemap(resp.Body)
	if err != nil {
		c.logger.Debug("sitemap parse failed", "url", smURL, "error", err)
		return nil, false
	}
	return sm, true
}

func (c *Collector) addSitemapURLs(r *run, urls []SitemapURL) bool {
	for _, u := range urls {
		loc := strings.TrimSpace(u.Loc)
		title := strings.TrimSpace(u.News.Title)
		if !sitemapArticle(loc, title != "") || !urlpat.SameSite(loc, r.site.BaseURL) {
			continue
		}
		if title == "" {
			title = titleFromURL(loc)
		}
		a := types.Article{Title: title, URL: loc, Section: urlpat.Section(loc)}
		if t, ok := parseDate(u.News.PublicationDate, u.LastMod); ok {
			a.PublishDate = &t
		}
		if r.add(a) {
			return true
		}
	}
	return false
}

// sitemapArticle rejects section, tag and root entries. Google News entries
// are articles by definition unless they point at a listing.
func sitemapArticle(loc string, newsEntry bool) bool {
	if urlpat.IsArticle(loc) {
		return true
	}
	if !newsEntry || urlpat.IsExcluded(loc) || urlpat.IsAuthorProfile(loc) {
		return false
	}
	u, err := url.Parse(loc)
	if err != nil {
		return false
	}
	p := strings.Trim(u.Path, "/")
	return strings.Contains(p, "/") || strings.ContainsAny(p, "-_0123456789")
}

// prioritizeSitemaps keeps at most n sub-sitemaps, news and post maps first.
func prioritizeSitemaps(subs []string, n int) []string {
	rank := func(s string) int {
		l := strings.ToLower(s)
		switch {
		case strings.Contains(l, "news"):
			return 0
		case strings.Contains(l, "post"), strings.Contains(l, "article"):
			return 1
		case strings.Contains(l, "author"), strings.Contains(l, "tag"), strings.Contains(l, "category"), strings.Contains(l, "image"), strings.Contains(l, "video"):
			return 3
		}
		return 2
	}
	out := append([]string(nil), subs...)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// robotsSitemaps returns the Sitemap: lines of the site's robots.txt.
func (c *Collector) robotsSitemaps(ctx context.Context, r *run) []string {
	resp, ok := c.get(ctx, r.site.Resolve("/robots.txt"))
	if !ok {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(resp.Body), "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[0]), "sitemap") {
			if v := strings.TrimSpace(parts[1]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func parseDate(values ...string) (time.Time, bool) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02T15:04Z07:00", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
