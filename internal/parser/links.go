package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an absolute outgoing link and its anchor text.
type Link struct {
	URL  string
	Text string
}

// chromeRegions are page areas whose links are navigation, not content.
const chromeRegions = "nav, footer, header, aside, [role=navigation], [role=banner], [role=contentinfo], .menu, .navbar, .footer, .header, .sidebar"

// LinkOptions tune ExtractLinks.
type LinkOptions struct {
	// SkipChrome drops links inside navigation, header, footer and sidebar regions.
	SkipChrome bool
	// SameHost keeps only links on the base URL's host (ignoring "www.").
	SameHost bool
}

// ExtractLinks finds all <a href> links in sel, resolved against baseURL and
// deduplicated after removing fragments.
func ExtractLinks(sel *goquery.Selection, baseURL string, opts LinkOptions) []Link {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	baseHost := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")

	seen := make(map[string]bool)
	var links []Link

	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if opts.SkipChrome && a.Closest(chromeRegions).Length() > 0 {
			return
		}
		href, _ := a.Attr("href")
		resolved, ok := ResolveHref(base, href)
		if !ok {
			return
		}
		if opts.SameHost && strings.TrimPrefix(strings.ToLower(resolved.Hostname()), "www.") != baseHost {
			return
		}

		absURL := resolved.String()
		if !seen[absURL] {
			seen[absURL] = true
			links = append(links, Link{URL: absURL, Text: collapse(a.Text())})
		}
	})

	return links
}

// ResolveHref resolves href against base. It returns false for fragments,
// javascript:, mailto:, tel:, data: and other non-HTTP links.
func ResolveHref(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return nil, false
	}

	parsedHref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	resolved := base.ResolveReference(parsedHref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	resolved.Fragment = ""
	return resolved, true
}

// FeedLinks returns the RSS/Atom feeds advertised in the document head.
func FeedLinks(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	var feeds []string
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		typ := strings.ToLower(sel.AttrOr("type", ""))
		if !strings.Contains(typ, "rss") && !strings.Contains(typ, "atom") {
			return
		}
		if u, ok := ResolveHref(base, sel.AttrOr("href", "")); ok {
			feeds = append(feeds, u.String())
		}
	})
	return feeds
}
