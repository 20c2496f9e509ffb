package jobs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulAlgoS/AtenFlux/internal/collector"
	"github.com/AnshulAlgoS/AtenFlux/internal/discovery"
	"github.com/AnshulAlgoS/AtenFlux/internal/nlp"
	"github.com/AnshulAlgoS/AtenFlux/internal/profile"
	"github.com/AnshulAlgoS/AtenFlux/internal/resolver"
	"github.com/AnshulAlgoS/AtenFlux/internal/search"
	"github.com/AnshulAlgoS/AtenFlux/internal/storage"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/webtest"
)

const bingEndpoint = "https://bing.test/search"

// liveHarness wires the production stages over web. Search goes to bing.test
// and nothing else is reachable unless web serves it.
func liveHarness(t *testing.T, web *webtest.Web) *harness {
	t.Helper()
	cfg := testConfig()
	cfg.Search.Providers = []string{"bing"}
	cfg.Search.Endpoints = map[string]string{"bing": bingEndpoint}
	cfg.Resolver.ProbeTLDs = []string{".com", ".in"}

	client, err := search.NewClient(cfg.Search, web, time.Second, testLogger)
	require.NoError(t, err)
	articles := collector.New(web, nil, cfg, testLogger)
	return harnessFor(t, cfg, Pipeline{
		Resolver:   resolver.New(client, web, cfg, testLogger),
		Discoverer: discovery.New(web, articles, cfg, testLogger),
		Profiles:   profile.New(web, nil, cfg, testLogger),
		Enricher:   nlp.NewEnricher(),
	})
}

func bingFinds(site, title string) webtest.RouteFunc {
	body := `<li class="b_algo"><h2><a href="` + site + `/">` + title + `</a></h2></li>`
	return func(*url.URL) webtest.Page {
		return webtest.Page{Status: 200, ContentType: "text/html", Body: body}
	}
}

type story struct {
	title, author string
}

// newsroom serves a homepage linking to one article page per story. Each
// article names its author only in meta[name=author].
func newsroom(web *webtest.Web, stories []story) []string {
	var links, urls []string
	for i, s := range stories {
		path := fmt.Sprintf("/india/politics-story-%d-latest-update", i)
		web.HTML(base+path, `<html><head><meta name="author" content="`+s.author+`"></head>`+
			`<body><article><h1>`+s.title+`</h1><p>Story.</p></article></body></html>`)
		links = append(links, `<a href="`+path+`">`+s.title+`</a>`)
		urls = append(urls, base+path)
	}
	web.HTML(base+"/", `<html><body><header><nav><a href="/news">News</a></nav></header>
<main><h2>Latest news</h2>`+strings.Join(links, "\n")+`</main></body></html>`)
	return urls
}

func TestPipelineDiscoversAuthorFromHomepageArticles(t *testing.T) {
	web := webtest.New().Route("https://bing.test/", bingFinds(base, "Example Times: Latest India News"))
	newsroom(web, []story{
		{"Election results declared in three states", "Asha Verma"},
		{"Parliament passes the new data bill", "Asha Verma"},
		{"Cabinet reshuffle expected this week", "Asha Verma"},
		{"Opposition walks out during assembly session", "Asha Verma"},
		{"Minister announces rural housing policy", "Asha Verma"},
	})
	h := liveHarness(t, web)

	job := h.run(t, "Example Times", 5)
	require.Equal(t, types.JobStatusCompleted, job.Status, job.Message)
	assert.Equal(t, base, job.Website)
	assert.Equal(t, 1, job.AuthorsFound)
	assert.Equal(t, 1, job.AuthorsSaved)

	profiles, err := h.store.ListProfiles(context.Background(), storage.ProfileQuery{Outlet: "Example Times"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	p := profiles[0]
	assert.Equal(t, "Asha Verma", p.Name)
	assert.Equal(t, base+"/author/asha-verma", p.ProfileURL)
	assert.Equal(t, "Journalist", p.Role)
	assert.GreaterOrEqual(t, p.TotalArticles, 1)
	assert.LessOrEqual(t, p.TotalArticles, 5)
	assert.Contains(t, p.Topics, "Politics")
	assert.Greater(t, p.InfluenceScore, 0)

	assert.Positive(t, web.Hits(base+"/"))
	assert.Positive(t, web.Hits(base+"/feed"), "feeds are tried before the homepage")
}

func TestPipelineFailsWhenNothingResolves(t *testing.T) {
	web := webtest.New().Route("https://bing.test/", func(*url.URL) webtest.Page {
		return webtest.Page{Status: 200, ContentType: "text/html", Body: `<ol id="b_results"></ol>`}
	})
	h := liveHarness(t, web)

	job := h.run(t, "Nowhere Gazette", 5)
	assert.Equal(t, types.JobStatusFailed, job.Status)
	assert.Contains(t, job.Message, "Website detection failed")
	assert.Empty(t, job.Website)
	assert.Zero(t, h.saved(t, ""))

	var searches int
	for _, u := range web.Requested() {
		if strings.HasPrefix(u, "https://bing.test/") {
			searches++
		}
	}
	assert.Positive(t, searches)
	assert.Positive(t, web.Hits("https://www.nowheregazette.com"))
	assert.Positive(t, web.Hits("https://nowheregazette.in"))
}

func TestPipelineKeepsAuthorsApartWhenProfilesRedirectHome(t *testing.T) {
	web := webtest.New().Route("https://bing.test/", bingFinds(base, "Example Times: Latest India News"))
	urls := newsroom(web, []story{
		{"Election results declared in three states", "Asha Verma"},
		{"Parliament passes the new data bill", "Ravi Kumar"},
		{"Cabinet reshuffle expected this week", "Asha Verma"},
		{"Opposition walks out during assembly session", "Ravi Kumar"},
	})
	web.Redirect(base+"/author/asha-verma", "/").Redirect(base+"/author/ravi-kumar", "/")
	h := liveHarness(t, web)

	job := h.run(t, "Example Times", 5)
	require.Equal(t, types.JobStatusCompleted, job.Status, job.Message)
	assert.Equal(t, 2, job.AuthorsSaved)
	assert.Equal(t, 2, h.saved(t, "Example Times"))

	profiles, err := h.store.ListProfiles(context.Background(), storage.ProfileQuery{Outlet: "Example Times"})
	require.NoError(t, err)
	owner := make(map[string]string)
	for _, p := range profiles {
		assert.Contains(t, []string{base + "/author/asha-verma", base + "/author/ravi-kumar"}, p.ProfileURL)
		for _, a := range p.Articles {
			prev, taken := owner[a.URL]
			assert.False(t, taken, "%s credited to %s and %s", a.URL, prev, p.Name)
			owner[a.URL] = p.Name
		}
	}
	assert.Equal(t, "Asha Verma", owner[urls[0]])
	assert.Equal(t, "Ravi Kumar", owner[urls[1]])
}
