package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/webtest"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const base = "https://www.example.in"

type stubArticles struct {
	articles []types.Article
	calls    int
}

func (s *stubArticles) Collect(_ context.Context, _ *types.ResolvedSite, target int) []types.Article {
	s.calls++
	if len(s.articles) > target {
		return s.articles[:target]
	}
	return s.articles
}

func newDiscoverer(web *webtest.Web, src ArticleSource) *Discoverer {
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = time.Second
	cfg.Fetcher.ProbeTimeout = time.Second
	return New(web, src, cfg, testLogger)
}

func site(t *testing.T) *types.ResolvedSite {
	t.Helper()
	s, err := types.NewResolvedSite(base, types.DetectedBySearch, 100)
	require.NoError(t, err)
	return s
}

func directoryPage(people ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><nav><a href="/author/nav-person">Nav Person</a></nav><main><h1>Our journalists</h1>`)
	for _, p := range people {
		slug := strings.ToLower(strings.ReplaceAll(p, " ", "-"))
		fmt.Fprintf(&b, `<div class="card"><a href="/author/%s">%s</a></div>`, slug, p)
	}
	b.WriteString(`</main></body></html>`)
	return b.String()
}

func metaArticle(author string) string {
	return `<html><head><meta name="author" content="` + author + `"></head><body><article><p>Story text.</p></article></body></html>`
}

// articlesBy registers one article page per author and returns the articles.
func articlesBy(web *webtest.Web, authors ...string) []types.Article {
	var out []types.Article
	for i, a := range authors {
		u := fmt.Sprintf("%s/india/story-number-%d-about-things", base, i)
		web.HTML(u, metaArticle(a))
		out = append(out, types.Article{Title: fmt.Sprintf("Story %d", i), URL: u})
	}
	return out
}

var staff = []string{"Asha Verma", "Rahul Mehta", "Priya Nair", "Karan Shah", "Neha Gupta", "Vikram Rao"}

func TestDiscoverFromDirectory(t *testing.T) {
	web := webtest.New().HTML(base+"/authors", directoryPage(staff...))
	src := &stubArticles{}

	got, err := newDiscoverer(web, src).Discover(context.Background(), site(t), "Example Times", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Asha Verma", got[0].Name)
	assert.Equal(t, base+"/author/asha-verma", got[0].ProfileURL)
	assert.Equal(t, types.SourceDirectory, got[0].Source)
	assert.Zero(t, src.calls, "quota met by the directory")
}

func TestDiscoverIgnoresThinDirectory(t *testing.T) {
	web := webtest.New().HTML(base+"/authors", directoryPage(staff[:3]...))
	src := &stubArticles{articles: articlesBy(web, "Meera Iyer")}

	got, err := newDiscoverer(web, src).Discover(context.Background(), site(t), "Example Times", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Meera Iyer", got[0].Name)
	assert.False(t, got[0].FromDirectory())
}

func TestDiscoverDirectoryNeedsVocabulary(t *testing.T) {
	page := strings.Replace(directoryPage(staff...), "Our journalists", "Welcome", 1)
	web := webtest.New().HTML(base+"/authors", page)

	_, err := newDiscoverer(web, &stubArticles{}).Discover(context.Background(), site(t), "Example Times", 3)
	assert.ErrorIs(t, err, types.ErrDiscovery)
}

func TestDiscoverMergesSpellingsOfOneAuthor(t *testing.T) {
	web := webtest.New()
	src := &stubArticles{articles: articlesBy(web, "Asha Verma", "ASHA  VERMA", " Asha   Verma ", "Asha Verma", "Asha Verma")}

	got, err := newDiscoverer(web, src).Discover(context.Background(), site(t), "Example Times", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, base+"/author/asha-verma", got[0].ProfileURL)
	assert.Equal(t, types.SourceConstructed, got[0].Source)
	assert.Len(t, got[0].SeedArticles, 5)
}

func TestDiscoverStopsAtQuota(t *testing.T) {
	web := webtest.New()
	authors := []string{"Asha Verma", "Rahul Mehta", "Priya Nair", "Karan Shah", "Neha Gupta", "Vikram Rao", "Meera Iyer"}
	src := &stubArticles{articles: articlesBy(web, authors...)}

	got, err := newDiscoverer(web, src).Discover(context.Background(), site(t), "Example Times", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	seen := make(map[string]bool)
	for _, c := range got {
		assert.False(t, seen[c.Name])
		seen[c.Name] = true
	}
}

func TestDiscoverPrefersDirectoryCandidates(t *testing.T) {
	web := webtest.New().HTML(base+"/team", directoryPage(staff...))
	src := &stubArticles{articles: articlesBy(web, "Meera Iyer", "Asha Verma", "Sunil Das")}

	got, err := newDiscoverer(web, src).Discover(context.Background(), site(t), "Example Times", 8)
	require.NoError(t, err)
	require.Len(t, got, 8)
	for i := 0; i < len(staff); i++ {
		assert.True(t, got[i].FromDirectory(), "candidate %d: %s", i, got[i].Name)
	}
	assert.False(t, got[6].FromDirectory())
	assert.False(t, got[7].FromDirectory())
	assert.Equal(t, 1, src.calls)
}

func TestDiscoverDropsInvalidBylines(t *testing.T) {
	web := webtest.New()
	src := &stubArticles{articles: articlesBy(web, "PTI", "Sports Desk", "News Bureau")}

	_, err := newDiscoverer(web, src).Discover(context.Background(), site(t), "Example Times", 3)
	assert.ErrorIs(t, err, types.ErrDiscovery)
}

func TestPoolKeepsRealProfileURL(t *testing.T) {
	p := newPool()
	p.Add(types.AuthorCandidate{Name: "Asha Verma", ProfileURL: base + "/author/asha-verma", Source: types.SourceConstructed})
	p.Add(types.AuthorCandidate{Name: "asha verma", ProfileURL: base + "/people/asha", Source: types.SourceArticleByline})

	items := p.Items()
	require.Len(t, items, 1)
	assert.Equal(t, base+"/people/asha", items[0].ProfileURL)
	assert.Equal(t, types.SourceArticleByline, items[0].Source)
}

func TestNameFromSlug(t *testing.T) {
	assert.Equal(t, "Asha Verma", nameFromSlug("asha-verma"))
	assert.Equal(t, "Rahul Kumar Mehta", nameFromSlug("rahul_kumar_mehta"))
}
