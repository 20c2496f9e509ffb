// Package resolver maps an outlet name to the outlet's website.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/fetcher"
	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/search"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/urlpat"
)

const (
	tldWeight     = 100
	keywordWeight = 50
	nameWeight    = 40
	wordWeight    = 10
	maxRankBonus  = 10
)

// newsVocabulary marks a probed page as a news site.
var newsVocabulary = []string{"news", "article", "latest"}

// structuralMarkers must exist on a probed page.
const structuralMarkers = "nav, header, [role=navigation], [role=banner]"

var leadingArticles = map[string]bool{"the": true, "a": true, "an": true}

// Resolver finds an outlet's canonical website via search, falling back to
// probing domains built from the outlet name.
type Resolver struct {
	search       *search.Client
	fetcher      fetcher.Fetcher
	cfg          config.ResolverConfig
	probeTimeout time.Duration
	logger       *slog.Logger
}

// New creates a Resolver.
func New(client *search.Client, f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		search:       client,
		fetcher:      f,
		cfg:          cfg.Resolver,
		probeTimeout: cfg.Fetcher.ProbeTimeout,
		logger:       logger.With("component", "resolver"),
	}
}

// Candidate is a scored search result.
type Candidate struct {
	Result search.Result
	Host   string
	Score  int
}

// Resolve returns the outlet's site or an error wrapping types.ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, outlet string) (*types.ResolvedSite, error) {
	outlet = names.Collapse(outlet)
	if outlet == "" {
		return nil, types.ErrInvalidOutlet
	}

	if site, ok := r.fromSearch(ctx, outlet); ok {
		return site, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, candidate := range ConstructDomains(outlet, r.cfg.ProbeTLDs) {
		if resp, ok := r.probe(ctx, candidate); ok {
			r.logger.Info("site resolved by probing", "outlet", outlet, "url", candidate, "final_url", resp.PageURL())
			return types.NewResolvedSite(resp.PageURL(), types.DetectedByConstructed, 0)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w for %q", types.ErrResolution, outlet)
}

func (r *Resolver) fromSearch(ctx context.Context, outlet string) (*types.ResolvedSite, bool) {
	if r.search == nil {
		return nil, false
	}
	session := r.search.NewSession()
	queries := []string{outlet + " official website", outlet + " news"}

	for _, p := range r.search.Providers() {
		for _, q := range queries {
			results, err := session.Search(ctx, p, q)
			if errors.Is(err, types.ErrSearchBudget) {
				r.logger.Debug("search budget exhausted", "outlet", outlet, "calls", session.Calls())
				return nil, false
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil, false
				}
				continue
			}

			best, ok := r.Best(outlet, results)
			if !ok {
				continue
			}
			site, err := types.NewResolvedSite(best.Result.URL, types.DetectedBySearch, best.Score)
			if err != nil {
				continue
			}
			site.Provider = p.Name()
			site = r.confirm(ctx, site)
			r.logger.Info("site resolved by search",
				"outlet", outlet, "url", site.BaseURL, "provider", p.Name(), "score", best.Score)
			return site, true
		}
	}
	return nil, false
}

// Best scores results and returns the highest-scoring surviving candidate.
// Blocked domains and negatively scored candidates do not survive.
func (r *Resolver) Best(outlet string, results []search.Result) (Candidate, bool) {
	var best Candidate
	found := false
	for _, res := range results {
		c, ok := r.Score(outlet, res)
		if !ok || c.Score < 0 {
			continue
		}
		if !found || c.Score > best.Score {
			best, found = c, true
		}
	}
	return best, found
}

// Score rates one result. It returns false for blocked or malformed URLs.
func (r *Resolver) Score(outlet string, res search.Result) (Candidate, bool) {
	host := urlpat.Host(res.URL)
	if host == "" || r.blocked(host) {
		return Candidate{}, false
	}

	score := 0
	if hasAnySuffix(host, r.cfg.LocalTLDs) {
		score += tldWeight
	}
	if hasAnySuffix(host, r.cfg.ForeignTLDs) {
		score -= tldWeight
	}

	tokens := wordSet(res.Title + " " + res.URL)
	if containsAny(tokens, r.cfg.LocalKeywords) {
		score += keywordWeight
	}
	if containsAny(tokens, r.cfg.ForeignKeywords) {
		score -= keywordWeight
	}

	compactHost := compact(host)
	if n := compact(stripArticles(outlet)); n != "" && strings.Contains(compactHost, n) {
		score += nameWeight
	} else {
		for _, w := range strings.Fields(strings.ToLower(names.Fold(outlet))) {
			if w = compact(w); len(w) >= 3 && !leadingArticles[w] && strings.Contains(compactHost, w) {
				score += wordWeight
			}
		}
	}

	if res.Rank > 0 && res.Rank < maxRankBonus {
		score += maxRankBonus - res.Rank
	}

	return Candidate{Result: res, Host: host, Score: score}, true
}

func (r *Resolver) blocked(host string) bool {
	for _, d := range r.cfg.BlockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// confirm fetches a search-resolved homepage and moves the site to the host
// it redirects to. An unreachable homepage leaves the site as found.
func (r *Resolver) confirm(ctx context.Context, site *types.ResolvedSite) *types.ResolvedSite {
	resp, err := fetcher.Get(ctx, r.fetcher, site.BaseURL, r.probeTimeout)
	if err != nil {
		r.logger.Debug("homepage check failed", "url", site.BaseURL, "error", err)
		return site
	}
	if !resp.Redirected() {
		return site
	}
	moved, err := site.Rebase(resp.PageURL())
	if err != nil {
		return site
	}
	r.logger.Debug("homepage moved host", "from", site.BaseURL, "to", moved.BaseURL)
	return moved
}

// probe accepts a constructed URL that answers 200 with news vocabulary and a
// navigation/header element. The response tells where redirects ended.
func (r *Resolver) probe(ctx context.Context, rawURL string) (*types.Response, bool) {
	resp, err := fetcher.Get(ctx, r.fetcher, rawURL, r.probeTimeout)
	if err != nil {
		r.logger.Debug("probe failed", "url", rawURL, "error", err)
		return nil, false
	}
	body := strings.ToLower(string(resp.Body))
	vocab := false
	for _, w := range newsVocabulary {
		if strings.Contains(body, w) {
			vocab = true
			break
		}
	}
	if !vocab {
		return nil, false
	}
	doc, err := resp.Document()
	if err != nil || doc.Find(structuralMarkers).Length() == 0 {
		return nil, false
	}
	return resp, true
}

// ConstructDomains builds candidate homepages from the outlet name, e.g.
// "The Example Times" -> https://www.exampletimes.com, https://exampletimes.com,
// ... then the same for "theexampletimes".
func ConstructDomains(outlet string, tlds []string) []string {
	var bases []string
	seen := make(map[string]bool)
	for _, n := range []string{compact(stripArticles(outlet)), compact(outlet)} {
		if n != "" && !seen[n] {
			seen[n] = true
			bases = append(bases, n)
		}
	}

	var out []string
	for _, n := range bases {
		for _, tld := range tlds {
			out = append(out, "https://www."+n+tld, "https://"+n+tld)
		}
	}
	return out
}

func stripArticles(s string) string {
	words := strings.Fields(s)
	for len(words) > 1 && leadingArticles[strings.ToLower(words[0])] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// compact lower-cases, folds diacritics and keeps only ASCII letters and digits.
func compact(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(names.Fold(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = true
	}
	return set
}

func containsAny(set map[string]bool, words []string) bool {
	for _, w := range words {
		if set[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

func hasAnySuffix(host string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	return false
}
