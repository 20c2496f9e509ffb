package collector

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/search"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/webtest"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const base = "https://www.example.in"

const rssFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Example</title>
<item><title>Monsoon arrives early in Kerala</title><link>https://www.example.in/india/monsoon-arrives-early-in-kerala</link><pubDate>Mon, 06 May 2024 10:00:00 +0530</pubDate><category>India</category></item>
<item><title>Sensex closes higher</title><link>https://www.example.in/business/sensex-closes-higher-today</link></item>
<item><title>Elsewhere</title><link>https://other.example.com/world/some-foreign-story</link></item>
<item><title>Cricket final preview</title><link>https://www.example.in/sports/cricket-final-preview-report</link></item>
</channel></rss>`

const sitemapIndex = `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<sitemap><loc>https://www.example.in/sitemap-authors.xml</loc></sitemap>
<sitemap><loc>https://www.example.in/sitemap-news-1.xml</loc></sitemap>
</sitemapindex>`

const newsSitemap = `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
<url><loc>https://www.example.in/2024/05/01/budget-session-begins</loc>
<news:news><news:title>Budget session begins</news:title><news:publication_date>2024-05-01T09:00:00+05:30</news:publication_date></news:news></url>
<url><loc>https://www.example.in/author/asha-verma</loc></url>
<url><loc>https://www.example.in/tag/economy</loc></url>
<url><loc>https://www.example.in/india/rains-lash-mumbai-123456.cms</loc><lastmod>2024-05-02</lastmod></url>
</urlset>`

const homepage = `<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head><body>
<header><nav><a href="/india/nav-link-that-looks-like-story">Nav story</a><a href="/news">News</a></nav></header>
<main>
<a href="/india/monsoon-arrives-early-in-kerala">Monsoon arrives early in Kerala, IMD says</a>
<a href="/business/sensex-closes-higher-today">More</a>
<a href="https://other.example.com/world/some-foreign-story">Foreign</a>
<a href="/about">About</a>
</main></body></html>`

func newCollector(web *webtest.Web, client *search.Client) *Collector {
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = time.Second
	return New(web, client, cfg, testLogger)
}

func site(t *testing.T) *types.ResolvedSite {
	t.Helper()
	s, err := types.NewResolvedSite(base, types.DetectedBySearch, 100)
	require.NoError(t, err)
	return s
}

func urls(articles []types.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.URL
	}
	return out
}

func TestCollectFromAdvertisedFeed(t *testing.T) {
	web := webtest.New().
		HTML(base+"/", homepage).
		XML(base+"/feed.xml", rssFeed)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Monsoon arrives early in Kerala", got[0].Title)
	assert.Equal(t, "India", got[0].Section)
	require.NotNil(t, got[0].PublishDate)
	assert.Equal(t, 2024, got[0].PublishDate.Year())
	assert.Equal(t, base+"/business/sensex-closes-higher-today", got[1].URL)

	// Target met by the feed: sitemaps are never consulted.
	assert.Zero(t, web.Hits(base+"/sitemap.xml"))
}

func TestCollectFeedSkipsForeignHosts(t *testing.T) {
	web := webtest.New().XML(base+"/rss", rssFeed)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 10)
	assert.NotContains(t, urls(got), "https://other.example.com/world/some-foreign-story")
	assert.Contains(t, urls(got), base+"/sports/cricket-final-preview-report")
}

func TestCollectFollowsSitemapIndex(t *testing.T) {
	web := webtest.New().
		XML(base+"/sitemap_index.xml", sitemapIndex).
		XML(base+"/sitemap-news-1.xml", newsSitemap)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Budget session begins", got[0].Title)
	require.NotNil(t, got[0].PublishDate)
	assert.Equal(t, base+"/india/rains-lash-mumbai-123456.cms", got[1].URL)
	assert.Equal(t, "Rains lash mumbai", got[1].Title)
	assert.Equal(t, "india", got[1].Section)
	assert.NotContains(t, urls(got), base+"/author/asha-verma")

	// The news map sorts ahead of the author map and fills the target.
	assert.Zero(t, web.Hits(base+"/sitemap-authors.xml"))
}

func TestCollectReadsRobotsSitemaps(t *testing.T) {
	web := webtest.New().
		Set(base+"/robots.txt", webtest.Page{Status: 200, ContentType: "text/plain",
			Body: "User-agent: *\nDisallow: /admin\nSitemap: https://www.example.in/custom-map.xml # news\n"}).
		XML(base+"/custom-map.xml", newsSitemap)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 1)
	require.Len(t, got, 1)
	assert.Equal(t, base+"/2024/05/01/budget-session-begins", got[0].URL)
}

func TestCollectFromHomepageLinks(t *testing.T) {
	web := webtest.New().HTML(base+"/", `<html><body>
<nav><a href="/india/nav-link-that-looks-like-story">Nav story</a></nav>
<a href="/india/monsoon-arrives-early-in-kerala">Monsoon arrives early in Kerala, IMD says</a>
<a href="/business/sensex-closes-higher-today">More</a>
<a href="/about">About</a></body></html>`)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 10)
	require.Len(t, got, 2)
	assert.Equal(t, "Monsoon arrives early in Kerala, IMD says", got[0].Title)
	assert.Equal(t, "Sensex closes higher today", got[1].Title, "short anchor text falls back to the slug")
	assert.Equal(t, "business", got[1].Section)
}

func TestCollectFromSections(t *testing.T) {
	web := webtest.New().HTML(base+"/politics", `<html><body>
<a href="/politics/assembly-polls-phase-two-ends">Assembly polls: phase two ends peacefully</a></body></html>`)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 5)
	require.Len(t, got, 1)
	assert.Equal(t, "politics", got[0].Section)
}

func TestCollectFallsBackToSiteSearch(t *testing.T) {
	web := webtest.New().Route("https://bing.test/", func(u *url.URL) webtest.Page {
		assert.Contains(t, u.Query().Get("q"), "site:www.example.in")
		return webtest.Page{Status: 200, ContentType: "text/html", Body: `
<li class="b_algo"><h2><a href="https://www.example.in/city/metro-line-opens-to-public">Metro line opens</a></h2></li>
<li class="b_algo"><h2><a href="https://www.example.in/author/asha-verma">Asha Verma</a></h2></li>
<li class="b_algo"><h2><a href="https://elsewhere.com/city/metro-line-opens-to-public">Copy</a></h2></li>`}
	})
	cfg := config.DefaultConfig()
	cfg.Search.Providers = []string{"bing"}
	cfg.Search.Endpoints = map[string]string{"bing": "https://bing.test/search"}
	client, err := search.NewClient(cfg.Search, web, time.Second, testLogger)
	require.NoError(t, err)
	c := newCollector(web, client)

	got := c.Collect(context.Background(), site(t), 5)
	require.Len(t, got, 1)
	assert.Equal(t, "Metro line opens", got[0].Title)
}

func TestCollectDeduplicatesAcrossStrategies(t *testing.T) {
	web := webtest.New().
		HTML(base+"/", homepage).
		XML(base+"/feed.xml", rssFeed)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 50)
	seen := make(map[string]bool)
	for _, u := range urls(got) {
		assert.False(t, seen[u], "duplicate %s", u)
		seen[u] = true
	}
	assert.Len(t, got, 3)
}

func TestCollectZeroTarget(t *testing.T) {
	web := webtest.New()
	assert.Empty(t, newCollector(web, nil).Collect(context.Background(), site(t), 0))
	assert.Empty(t, web.Requested())
}

func TestTitleFromURL(t *testing.T) {
	assert.Equal(t, "Monsoon arrives early", titleFromURL("https://x.in/india/monsoon-arrives-early-123456.cms"))
	assert.Equal(t, "Budget session begins", titleFromURL("https://x.in/2024/05/01/budget_session_begins/"))
}

func TestPrioritizeSitemaps(t *testing.T) {
	subs := []string{"/sitemap-tags.xml", "/sitemap-misc.xml", "/post-sitemap2.xml", "/news-sitemap.xml"}
	assert.Equal(t, []string{"/news-sitemap.xml", "/post-sitemap2.xml"}, prioritizeSitemaps(subs, 2))
}

func TestCollectSitemapSkipsListingPages(t *testing.T) {
	web := webtest.New().XML(base+"/sitemap.xml", `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">
<url><loc>https://www.example.in/</loc></url>
<url><loc>https://www.example.in/sports</loc></url>
<url><loc>https://www.example.in/politics</loc><news:news><news:title>Politics</news:title></news:news></url>
<url><loc>https://www.example.in/india/rains-lash-mumbai-123456.cms</loc></url>
<url><loc>https://www.example.in/poll-dates-out</loc><news:news><news:title>Poll dates out</news:title></news:news></url>
</urlset>`)
	c := newCollector(web, nil)

	got := c.Collect(context.Background(), site(t), 10)
	assert.Equal(t, []string{
		base + "/india/rains-lash-mumbai-123456.cms",
		base + "/poll-dates-out",
	}, urls(got))
}

func TestCollectFollowsHomepageToNewHost(t *testing.T) {
	const moved = "https://exampletimes.in"
	web := webtest.New().
		Route("https://www.exampletimes.com", func(u *url.URL) webtest.Page {
			return webtest.Page{Status: 301, Location: moved + u.Path}
		}).
		HTML(moved+"/", `<html><body><main>
<a href="/india/monsoon-arrives-early-in-kerala">Monsoon arrives early in Kerala, IMD says</a>
<a href="/business/sensex-closes-higher-today">Sensex closes higher on bank rally</a>
</main></body></html>`)
	old, err := types.NewResolvedSite("https://www.exampletimes.com", types.DetectedByConstructed, 0)
	require.NoError(t, err)

	got := newCollector(web, nil).Collect(context.Background(), old, 2)
	assert.Equal(t, []string{
		moved + "/india/monsoon-arrives-early-in-kerala",
		moved + "/business/sensex-closes-higher-today",
	}, urls(got))
}
