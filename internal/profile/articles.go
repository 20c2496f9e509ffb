package profile

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnshulAlgoS/AtenFlux/internal/collector"
	"github.com/AnshulAlgoS/AtenFlux/internal/parser"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/urlpat"
)

var containerSelectors = []string{
	"article", ".story-card", ".story", ".post", ".article-item", ".article-card",
	".card", ".listing li", "ul.articles li", "[class*='story']", "[class*='article-list'] li",
}

const headings = "h1, h2, h3, h4"

// pageArticles lists the author's articles on their profile page: first from
// container elements holding a heading and a link, then from every anchor
// when containers yield fewer than MinContainerArticles.
func (e *Extractor) pageArticles(doc *goquery.Document, pageURL string) []types.Article {
	set := types.NewArticleSet()
	for _, a := range containerArticles(doc, pageURL) {
		set.Add(a)
	}
	if set.Len() < e.cfg.MinContainerArticles {
		for _, a := range collector.ArticleLinks(doc, pageURL) {
			set.Add(a)
		}
	}
	return set.Items()
}

func containerArticles(doc *goquery.Document, pageURL string) []types.Article {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	var out []types.Article
	seen := make(map[string]bool)
	for _, sel := range containerSelectors {
		doc.Find(sel).Each(func(_ int, box *goquery.Selection) {
			heading := box.Find(headings).First()
			if heading.Length() == 0 {
				return
			}
			link := heading.Find("a[href]").First()
			if link.Length() == 0 {
				link = box.Find("a[href]").First()
			}
			if link.Length() == 0 {
				return
			}
			resolved, ok := parser.ResolveHref(base, link.AttrOr("href", ""))
			if !ok || !urlpat.SameSite(resolved.String(), pageURL) {
				return
			}
			u := resolved.String()
			if seen[u] || urlpat.IsExcluded(u) || urlpat.IsAuthorProfile(u) {
				return
			}
			title := strings.Join(strings.Fields(heading.Text()), " ")
			if title == "" {
				return
			}
			seen[u] = true
			out = append(out, types.Article{Title: title, URL: u, Section: urlpat.Section(u)})
		})
		if len(out) > 0 {
			return out
		}
	}
	return out
}

// searchArticles asks the search backends for `"name" site:host`.
func (e *Extractor) searchArticles(ctx context.Context, name string, site *types.ResolvedSite) []types.Article {
	if e.search == nil || site == nil {
		return nil
	}
	results, provider, err := e.search.NewSession().First(ctx, `"`+name+`" site:`+site.Host)
	if err != nil {
		e.logger.Debug("author search failed", "name", name, "error", err)
		return nil
	}
	var out []types.Article
	for _, r := range results {
		if !urlpat.SameSite(r.URL, site.BaseURL) || !urlpat.IsArticle(r.URL) {
			continue
		}
		out = append(out, types.Article{Title: r.Title, URL: r.URL, Section: urlpat.Section(r.URL)})
	}
	e.logger.Debug("author search", "name", name, "provider", provider, "articles", len(out))
	return out
}
