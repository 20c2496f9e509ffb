// Package urlpat classifies news-site URLs as articles or author profiles.
package urlpat

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	datePath     = regexp.MustCompile(`/(19|20)\d{2}/(0?[1-9]|1[0-2])(/(0?[1-9]|[12]\d|3[01]))?/`)
	dateInline   = regexp.MustCompile(`(19|20)\d{2}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])`)
	numericID    = regexp.MustCompile(`[-/_]\d{5,}(\.cms|\.html?|\.ece|\.php)?/?$`)
	profilePath  = regexp.MustCompile(`(?i)/(author|authors|writer|writers|journalist|journalists|profile|profiles|people|staff|contributor|contributors|columnist|columnists|reporter|reporters|team|by)/[^/?#]+/?$`)
	allDigits    = regexp.MustCompile(`^\d+$`)
	staticSuffix = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|svg|webp|ico|css|js|json|xml|pdf|zip|mp3|mp4|woff2?|ttf)$`)
)

// contentPrefixes are first path segments that usually hold articles.
var contentPrefixes = map[string]bool{
	"article": true, "articles": true, "story": true, "stories": true,
	"news": true, "post": true, "posts": true, "blog": true, "blogs": true,
	"opinion": true, "analysis": true, "feature": true, "features": true,
	"interview": true, "explainer": true, "p": true,
}

// excludedSegments mark listing, taxonomy and account pages.
var excludedSegments = map[string]bool{
	"author": true, "authors": true, "tag": true, "tags": true,
	"category": true, "categories": true, "topic": true, "topics": true,
	"login": true, "signin": true, "signup": true, "register": true,
	"subscribe": true, "subscription": true, "search": true, "about": true,
	"about-us": true, "contact": true, "contact-us": true, "privacy": true,
	"privacy-policy": true, "terms": true, "terms-of-use": true, "careers": true,
	"advertise": true, "feed": true, "rss": true, "page": true,
	"wp-admin": true, "wp-login.php": true, "account": true, "newsletter": true,
	"newsletters": true, "cdn-cgi": true,
}

func segments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsExcluded reports whether raw points at a taxonomy, account or static URL.
func IsExcluded(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	if staticSuffix.MatchString(p) {
		return true
	}
	for _, s := range segments(p) {
		if excludedSegments[s] {
			return true
		}
	}
	return false
}

// IsArticle reports whether raw looks like a single article page.
func IsArticle(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	p := strings.ToLower(u.Path)
	segs := segments(p)
	if len(segs) == 0 {
		return false
	}
	if IsAuthorProfile(raw) || IsExcluded(raw) {
		return false
	}

	if datePath.MatchString(p+"/") || dateInline.MatchString(p) {
		return true
	}
	if numericID.MatchString(p) || strings.HasSuffix(p, ".cms") || strings.Contains(p, "articleshow") {
		return true
	}

	last := strings.TrimSuffix(strings.TrimSuffix(segs[len(segs)-1], ".html"), ".htm")
	words := len(strings.FieldsFunc(last, func(r rune) bool { return r == '-' || r == '_' }))

	if contentPrefixes[segs[0]] && len(segs) >= 2 && words >= 2 {
		return true
	}
	if ext := path.Ext(p); (ext == ".html" || ext == ".htm") && len(segs) >= 2 {
		return true
	}
	if len(segs) >= 2 && words >= 3 {
		return true
	}
	return len(segs) == 1 && words >= 5
}

// IsAuthorProfile reports whether raw matches a common author-profile path.
func IsAuthorProfile(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return profilePath.MatchString(u.Path)
}

// Section returns the first path segment of a multi-segment article URL.
func Section(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segs := segments(strings.ToLower(u.Path))
	if len(segs) < 2 || allDigits.MatchString(segs[0]) {
		return ""
	}
	if contentPrefixes[segs[0]] && segs[0] != "news" && segs[0] != "opinion" {
		return ""
	}
	return segs[0]
}

// Host returns the host of raw without a leading "www.".
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SameSite reports whether a and b live on the same host, ignoring "www.".
func SameSite(a, b string) bool {
	ha, hb := Host(a), Host(b)
	return ha != "" && ha == hb
}
