package discovery

import (
	"context"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/parser"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/urlpat"
)

// directoryVocabulary marks a page as a staff listing.
var directoryVocabulary = []string{
	"journalist", "reporter", "author", "writer", "columnist",
	"contributor", "correspondent", "editor", "our team", "staff",
}

// fromDirectory probes the conventional directory paths and harvests the
// first page that qualifies. It returns that page and how many candidates
// were added.
func (d *Discoverer) fromDirectory(ctx context.Context, site *types.ResolvedSite, p *pool, quota int) (string, int) {
	for _, dir := range d.cfg.DirectoryPaths {
		if ctx.Err() != nil {
			return "", 0
		}
		pageURL := site.Resolve(dir)
		links, ok := d.directoryLinks(ctx, pageURL)
		if !ok {
			continue
		}

		added := 0
		for _, l := range links {
			if p.Len() >= quota {
				break
			}
			name, ok := directoryName(l)
			if !ok {
				continue
			}
			if p.Add(types.AuthorCandidate{Name: name, ProfileURL: l.URL, Source: types.SourceDirectory}) {
				added++
			}
		}
		return pageURL, added
	}
	return "", 0
}

// directoryLinks returns the author-profile links on pageURL if the page
// reads like a directory: journalist vocabulary and more than
// MinDirectoryLinks profile links.
func (d *Discoverer) directoryLinks(ctx context.Context, pageURL string) ([]parser.Link, bool) {
	resp, err := fetcher.Get(ctx, d.fetcher, pageURL, d.probeTimeout)
	if err != nil {
		return nil, false
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, false
	}
	text := strings.ToLower(doc.Find("body").Text())
	if !containsAny(text, directoryVocabulary) {
		return nil, false
	}

	var profiles []parser.Link
	for _, l := range parser.ExtractLinks(doc.Selection, resp.PageURL(), parser.LinkOptions{SkipChrome: true, SameHost: true}) {
		if urlpat.IsAuthorProfile(l.URL) {
			profiles = append(profiles, l)
		}
	}
	if len(profiles) <= d.cfg.MinDirectoryLinks {
		d.logger.Debug("not a directory", "url", pageURL, "profile_links", len(profiles))
		return nil, false
	}
	return profiles, true
}

// directoryName reads a name from the anchor text, falling back to the
// profile slug when the anchor is an image or a "View profile" button.
func directoryName(l parser.Link) (string, bool) {
	if name := names.CleanByline(l.Text); names.IsValidName(name) {
		return name, true
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return "", false
	}
	name := nameFromSlug(path.Base(strings.TrimSuffix(u.Path, "/")))
	return name, names.IsValidName(name)
}

// nameFromSlug turns "asha-verma" into "Asha Verma".
func nameFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' || r == '+' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
