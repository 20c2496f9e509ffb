package profile

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/AnshulAlgoS/AtenFlux/internal/parser"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

const (
	minBio  = 20
	maxBio  = 1500
	minRole = 3
	maxRole = 80
)

var bioSelectors = []string{
	".author-bio", ".author-description", ".author__bio", "[class*='author-bio']",
	"[itemprop='description']", ".profile-bio", ".profile-description",
	".about-author", ".bio", "[class*='biography']", ".author-info p", ".author-details p",
}

var roleSelectors = []string{
	"[itemprop='jobTitle']", ".author-designation", ".designation", ".author-role",
	".author-title", ".job-title", ".profile-role", "[class*='designation']",
}

var pictureSelectors = []string{
	".author-image img", ".author-img img", ".author-avatar img", "img.avatar",
	".profile-image img", ".profile-pic img", "[itemprop='image']", "[class*='author'] img",
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

func bounded(lo, hi int) func(string) bool {
	return func(s string) bool {
		n := utf8.RuneCountInString(s)
		return n >= lo && n <= hi
	}
}

// person is the linked-data Person node of a profile page, if any.
type person struct {
	description, jobTitle, email, image string
	sameAs                              []string
}

func personNode(doc *goquery.Document) (person, bool) {
	for _, sd := range parser.ExtractJSONLD(doc) {
		node := sd.Data
		if main, ok := node["mainEntity"].(map[string]any); ok {
			node = main
		}
		if t, _ := node["@type"].(string); t != "Person" {
			continue
		}
		p := person{
			description: str(node["description"]),
			jobTitle:    str(node["jobTitle"]),
			email:       strings.TrimPrefix(str(node["email"]), "mailto:"),
		}
		switch img := node["image"].(type) {
		case string:
			p.image = img
		case map[string]any:
			p.image = str(img["url"])
		}
		switch same := node["sameAs"].(type) {
		case string:
			p.sameAs = []string{same}
		case []any:
			for _, s := range same {
				if v := str(s); v != "" {
					p.sameAs = append(p.sameAs, v)
				}
			}
		}
		return p, true
	}
	return person{}, false
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func (e *Extractor) readFields(doc *goquery.Document, pageURL string, p *types.AuthorProfile) {
	ld, hasLD := personNode(doc)
	base, _ := url.Parse(pageURL)

	bio := parser.Chain[string]{
		{Name: "jsonld", Try: func(*goquery.Document) (string, bool) {
			return ld.description, hasLD && bounded(minBio, maxBio)(ld.description)
		}},
		parser.FirstText("selector", bioSelectors, bounded(minBio, maxBio)),
		{Name: "meta", Try: func(doc *goquery.Document) (string, bool) {
			if !hasLD && !profileTyped(doc) {
				return "", false
			}
			return metaDescription(doc)
		}},
	}
	if v, _, ok := bio.First(doc); ok {
		p.Bio = v
	}

	role := parser.Chain[string]{
		{Name: "jsonld", Try: func(*goquery.Document) (string, bool) {
			return ld.jobTitle, hasLD && bounded(minRole, maxRole)(ld.jobTitle)
		}},
		parser.FirstText("selector", roleSelectors, bounded(minRole, maxRole)),
	}
	if v, _, ok := role.First(doc); ok {
		p.Role = v
	}

	if hasLD && emailPattern.MatchString(ld.email) {
		p.Email = ld.email
	} else {
		p.Email = findEmail(doc)
	}

	if hasLD && ld.image != "" {
		p.ProfilePicture = absolute(base, ld.image)
	} else {
		p.ProfilePicture = findPicture(doc, base)
	}

	var hrefs []string
	if hasLD {
		hrefs = append(hrefs, ld.sameAs...)
	}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		// Site-wide header and footer icons belong to the outlet.
		if a.Closest("header, footer, nav").Length() > 0 {
			return
		}
		hrefs = append(hrefs, a.AttrOr("href", ""))
	})
	p.SocialLinks = socialLinks(hrefs)
}

// profileTyped reports whether linked data or og:type declares the page a
// person or profile. Other pages carry a site tagline or an article summary
// in their description.
func profileTyped(doc *goquery.Document) bool {
	for _, sd := range parser.Extract(doc) {
		switch sd.Type {
		case parser.JSONLD:
			if t, _ := sd.Data["@type"].(string); t == "Person" || t == "ProfilePage" {
				return true
			}
		case parser.OpenGraph:
			if t, _ := sd.Data["type"].(string); t == "profile" {
				return true
			}
		}
	}
	return false
}

// metaDescription uses the page description when it reads like a bio.
func metaDescription(doc *goquery.Document) (string, bool) {
	for _, sd := range parser.Extract(doc) {
		if sd.Type != parser.MetaTags && sd.Type != parser.OpenGraph {
			continue
		}
		if d, ok := sd.Data["description"].(string); ok {
			d = strings.Join(strings.Fields(d), " ")
			if bounded(minBio, maxBio)(d) {
				return d, true
			}
		}
	}
	return "", false
}

func findEmail(doc *goquery.Document) string {
	var email string
	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		addr := strings.TrimPrefix(a.AttrOr("href", ""), "mailto:")
		if i := strings.Index(addr, "?"); i >= 0 {
			addr = addr[:i]
		}
		if emailPattern.MatchString(addr) {
			email = addr
			return false
		}
		return true
	})
	if email != "" {
		return email
	}
	for _, sel := range []string{".author-bio", ".author-info", ".profile", "[class*='author']"} {
		if m := emailPattern.FindString(doc.Find(sel).Text()); m != "" {
			return m
		}
	}
	return ""
}

func findPicture(doc *goquery.Document, base *url.URL) string {
	for _, sel := range pictureSelectors {
		img := doc.Find(sel).First()
		if img.Length() == 0 {
			continue
		}
		src := img.AttrOr("src", "")
		if src == "" || strings.HasPrefix(src, "data:") {
			src = img.AttrOr("data-src", "")
		}
		if src == "" {
			src = img.AttrOr("content", "")
		}
		if src != "" {
			return absolute(base, src)
		}
	}
	return ""
}

func absolute(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	if u, ok := parser.ResolveHref(base, ref); ok {
		return u.String()
	}
	return ref
}

// shareMarkers identify share buttons rather than accounts.
var shareMarkers = []string{"/intent/", "/share", "sharer", "sharearticle", "/dialog/", "share?", "shareurl"}

// socialLinks picks the first account link per network from hrefs.
func socialLinks(hrefs []string) types.SocialLinks {
	var s types.SocialLinks
	for _, raw := range hrefs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Host == "" {
			continue
		}
		lower := strings.ToLower(u.String())
		if containsAny(lower, shareMarkers) {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		path := strings.Trim(u.Path, "/")
		if path == "" {
			continue
		}
		switch {
		case (host == "twitter.com" || host == "x.com") && s.Twitter == "":
			s.Twitter = u.String()
		case host == "linkedin.com" && (strings.HasPrefix(path, "in/") || strings.HasPrefix(path, "pub/")) && s.LinkedIn == "":
			s.LinkedIn = u.String()
		case (host == "facebook.com" || host == "m.facebook.com") && s.Facebook == "":
			s.Facebook = u.String()
		case host == "instagram.com" && s.Instagram == "":
			s.Instagram = u.String()
		}
	}
	return s
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
