// Package byline finds the author of a single article or profile document.
package byline

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/parser"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// Author is a validated author found on a page.
type Author struct {
	Name       string
	ProfileURL string
	Source     types.AuthorSource

	// Strategy names the extraction step that matched.
	Strategy string
}

var authorAnchors = []string{
	`a[rel="author"]`,
	`[itemprop="author"] a`,
	`.byline a`,
	`.author a`,
	`a.author`,
	`a[href*="/author/"]`,
	`a[href*="/authors/"]`,
	`a[href*="/profile/"]`,
	`a[href*="/journalist/"]`,
	`a[href*="/writer/"]`,
	`a[href*="/reporter/"]`,
	`a[href*="/columnist/"]`,
}

var metaKeys = []string{
	"author", "article:author", "byl", "parsely-author", "sailthru.author", "dc.creator", "DC.creator",
}

var bylineBlocks = []string{
	".byline", "[class*='byline']", ".author-name", "[class*='author-name']",
	"[itemprop='author']", ".story-author", ".article-author", ".writer", ".author", "span.by",
}

var contentRoots = []string{
	"article", "main", "[role='main']", ".article-body", ".story-body", ".entry-content", "body",
}

// byLabel matches short elements whose text opens with a "By" label.
const byLabel = `//*[self::p or self::span or self::div or self::address or self::li]` +
	`[starts-with(normalize-space(.), 'By ') or starts-with(normalize-space(.), 'BY ')]`

var byPattern = regexp.MustCompile(`\b(?:By|BY|by)\s+(\p{Lu}[\p{L}'’.-]+(?:\s+\p{Lu}[\p{L}'’.-]+){1,3})`)

const maxBylineLen = 120

// Extractor applies the byline strategies in priority order.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a byline extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "byline")}
}

// Extract returns the first valid author on the page. When no profile link is
// present one is synthesized as {origin}/author/{slug}.
func (e *Extractor) Extract(doc *goquery.Document, pageURL string) (Author, bool) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return Author{}, false
	}

	chain := e.chain(base)
	author, strategy, ok := chain.First(doc)
	if !ok {
		e.logger.Debug("no byline", "url", pageURL, "tried", chain.Names())
		return Author{}, false
	}
	author.Strategy = strategy
	if author.ProfileURL == "" {
		author.ProfileURL = SynthesizeProfileURL(base, author.Name)
		author.Source = types.SourceConstructed
	}
	e.logger.Debug("byline found", "url", pageURL, "name", author.Name, "strategy", strategy)
	return author, true
}

// SynthesizeProfileURL builds the conventional profile location for name.
func SynthesizeProfileURL(base *url.URL, name string) string {
	return base.Scheme + "://" + base.Host + "/author/" + names.Slug(name)
}

func (e *Extractor) chain(base *url.URL) parser.Chain[Author] {
	return parser.Chain[Author]{
		{Name: "jsonld", Try: func(doc *goquery.Document) (Author, bool) { return fromJSONLD(doc, base) }},
		{Name: "anchor", Try: func(doc *goquery.Document) (Author, bool) { return fromAnchors(doc, base) }},
		{Name: "meta", Try: func(doc *goquery.Document) (Author, bool) { return fromMeta(doc, base) }},
		{Name: "block", Try: fromBlocks},
		{Name: "label", Try: fromLabel},
		{Name: "pattern", Try: fromPattern},
	}
}

func accept(raw string) (string, bool) {
	if len(raw) > maxBylineLen {
		return "", false
	}
	name := names.CleanByline(raw)
	return name, names.IsValidName(name)
}

func resolve(base *url.URL, href string) string {
	if u, ok := parser.ResolveHref(base, href); ok {
		return u.String()
	}
	return ""
}

func fromJSONLD(doc *goquery.Document, base *url.URL) (Author, bool) {
	for _, p := range parser.JSONLDAuthors(doc) {
		if name, ok := accept(p.Name); ok {
			return Author{Name: name, ProfileURL: resolve(base, p.URL), Source: types.SourceArticleByline}, true
		}
	}
	return Author{}, false
}

func fromAnchors(doc *goquery.Document, base *url.URL) (Author, bool) {
	for _, sel := range authorAnchors {
		var found Author
		doc.Find(sel).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			name, ok := accept(a.Text())
			if !ok {
				return true
			}
			found = Author{Name: name, ProfileURL: resolve(base, a.AttrOr("href", "")), Source: types.SourceArticleByline}
			return false
		})
		if found.Name != "" {
			return found, true
		}
	}
	return Author{}, false
}

func fromMeta(doc *goquery.Document, base *url.URL) (Author, bool) {
	var profile string
	for _, key := range metaKeys {
		v, _, ok := parser.MetaContent(doc, key)
		if !ok {
			continue
		}
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "/") {
			if profile == "" {
				profile = resolve(base, v)
			}
			continue
		}
		if name, ok := accept(v); ok {
			if profile == "" {
				if link, _, ok := parser.MetaContent(doc, "article:author"); ok && strings.HasPrefix(link, "http") {
					profile = link
				}
			}
			return Author{Name: name, ProfileURL: profile, Source: types.SourceMetaTag}, true
		}
	}
	return Author{}, false
}

func fromBlocks(doc *goquery.Document) (Author, bool) {
	s := parser.FirstText("block", bylineBlocks, func(text string) bool {
		_, ok := accept(text)
		return ok
	})
	text, ok := s.Try(doc)
	if !ok {
		return Author{}, false
	}
	name, _ := accept(text)
	return Author{Name: name, Source: types.SourceArticleByline}, true
}

func fromLabel(doc *goquery.Document) (Author, bool) {
	for _, text := range parser.XPathTexts(doc, byLabel) {
		if name, ok := accept(text); ok {
			return Author{Name: name, Source: types.SourceArticleByline}, true
		}
	}
	return Author{}, false
}

func fromPattern(doc *goquery.Document) (Author, bool) {
	for _, root := range contentRoots {
		sel := doc.Find(root).First()
		if sel.Length() == 0 {
			continue
		}
		for _, m := range byPattern.FindAllStringSubmatch(strings.Join(strings.Fields(sel.Text()), " "), -1) {
			if name, ok := accept(m[1]); ok {
				return Author{Name: name, Source: types.SourceArticleByline}, true
			}
		}
		return Author{}, false
	}
	return Author{}, false
}
