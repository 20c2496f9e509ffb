package collector

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnshulAlgoS/AtenFlux/internal/parser"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/urlpat"
)

const minAnchorTitle = 20

var trailingID = regexp.MustCompile(`[-_]?\d{5,}$`)

// ArticleLinks classifies the content links of a listing page as articles.
// Navigation, header, footer and sidebar links are ignored.
func ArticleLinks(doc *goquery.Document, pageURL string) []types.Article {
	var out []types.Article
	for _, l := range parser.ExtractLinks(doc.Selection, pageURL, parser.LinkOptions{SkipChrome: true, SameHost: true}) {
		if !urlpat.IsArticle(l.URL) {
			continue
		}
		title := l.Text
		if len([]rune(title)) < minAnchorTitle {
			title = titleFromURL(l.URL)
		}
		out = append(out, types.Article{Title: title, URL: l.URL, Section: urlpat.Section(l.URL)})
	}
	return out
}

func (c *Collector) fromHomepage(_ context.Context, r *run) {
	if r.homepage == nil {
		return
	}
	for _, a := range ArticleLinks(r.homepage, r.homeURL) {
		if r.add(a) {
			return
		}
	}
}

func (c *Collector) fromSections(ctx context.Context, r *run) {
	for _, slug := range c.cfg.SectionSlugs {
		if ctx.Err() != nil {
			return
		}
		pageURL := r.site.Resolve("/" + strings.Trim(slug, "/"))
		resp, ok := c.get(ctx, pageURL)
		if !ok {
			continue
		}
		doc, err := resp.Document()
		if err != nil {
			continue
		}
		for _, a := range ArticleLinks(doc, pageURL) {
			if r.add(a) {
				return
			}
		}
	}
}

func (c *Collector) fromSearch(ctx context.Context, r *run) {
	if c.search == nil {
		return
	}
	results, _, err := c.search.NewSession().First(ctx, "site:"+r.site.Host)
	if err != nil {
		c.logger.Debug("site search failed", "site", r.site.Host, "error", err)
		return
	}
	for _, res := range results {
		if !urlpat.SameSite(res.URL, r.site.BaseURL) || !urlpat.IsArticle(res.URL) {
			continue
		}
		title := res.Title
		if title == "" {
			title = titleFromURL(res.URL)
		}
		if r.add(types.Article{Title: title, URL: res.URL, Section: urlpat.Section(res.URL)}) {
			return
		}
	}
}

// titleFromURL turns the last path segment into a readable title:
// "/india/monsoon-arrives-early-123456.cms" -> "Monsoon arrives early".
func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	seg := path.Base(strings.TrimSuffix(u.Path, "/"))
	seg = strings.TrimSuffix(seg, path.Ext(seg))
	seg = trailingID.ReplaceAllString(seg, "")
	words := strings.FieldsFunc(seg, func(r rune) bool { return r == '-' || r == '_' })
	if len(words) == 0 {
		return raw
	}
	title := strings.Join(words, " ")
	runes := []rune(title)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
